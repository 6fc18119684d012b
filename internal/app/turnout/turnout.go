// Pacote turnout calcula as estatísticas de comparecimento a partir dos totais já lidos do armazenamento.
package turnout

import (
	"fmt"
	"time"

	"github.com/marcelojr/votacao-campus/internal/domain"
)

// Input reúne tudo o que o cálculo precisa; nenhuma leitura acontece aqui.
type Input struct {
	Session    domain.Session
	Eligible   int64
	Tally      domain.VoteTally
	Rejections map[domain.RejectionKind]int64
	Now        time.Time
}

func Compute(in Input) domain.SessionStats {
	byKind := make(map[domain.RejectionKind]int64, len(in.Rejections))
	var rejected int64
	for kind, n := range in.Rejections {
		if n <= 0 {
			continue
		}
		byKind[kind] = n
		rejected += n
	}

	unique := in.Tally.UniqueVotersInSpec
	if unique > in.Eligible {
		unique = in.Eligible
	}

	categories := make([]domain.CategoryStats, 0, len(in.Session.Categories))
	for _, c := range in.Session.Categories {
		categories = append(categories, categoryStats(c))
	}

	return domain.SessionStats{
		SessionID:         in.Session.ID,
		EligibleStudents:  in.Eligible,
		TotalVotes:        in.Tally.TotalVotes,
		UniqueVoters:      unique,
		VotersOutsideSpec: in.Tally.UniqueVoters - unique,
		DuplicateAttempts: byKind[domain.RejectDuplicateVote],
		RejectedVotes:     rejected,
		RejectionsByKind:  byKind,
		TurnoutPercentage: Percentage(unique, in.Eligible),
		Categories:        categories,
		ComputedAt:        in.Now,
	}
}

func categoryStats(c domain.Category) domain.CategoryStats {
	var total int64
	for _, cand := range c.Candidates {
		total += cand.VoteCount
	}
	candidates := make([]domain.CandidateStats, 0, len(c.Candidates))
	for _, cand := range c.Candidates {
		candidates = append(candidates, domain.CandidateStats{
			CandidateID: cand.ID,
			Name:        cand.Name,
			VoteCount:   cand.VoteCount,
			Percentage:  Percentage(cand.VoteCount, total),
		})
	}
	return domain.CategoryStats{Name: c.Name, TotalVotes: total, Candidates: candidates}
}

// Percentage formata part/whole*100 com duas casas; whole zero vira "0.00".
func Percentage(part, whole int64) string {
	if whole <= 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(part)/float64(whole)*100)
}
