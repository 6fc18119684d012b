// Pacote domain define as entidades da votação no campus e as portas consumidas pela aplicação.
package domain

import (
	"time"
)

type (
	CollegeID    string
	DepartmentID string
	Level        string
	SessionID    string
	CandidateID  string
	VoterID      string
	RecordID     string
	AttemptID    string
)

// College agrupa departamentos na hierarquia faculdade → departamento → nível.
type College struct {
	ID          CollegeID    `json:"id"`
	Code        string       `json:"code"`
	Name        string       `json:"name"`
	Departments []Department `json:"departments"`
}

type Department struct {
	ID              DepartmentID `json:"id"`
	Code            string       `json:"code"`
	Name            string       `json:"name"`
	CollegeID       CollegeID    `json:"college_id"`
	AvailableLevels []Level      `json:"available_levels"`
}

// EligibilitySpec descreve as combinações (departamento, nível) aptas a votar.
// Os slices são mantidos ordenados e sem repetição pelo pacote eligibility.
type EligibilitySpec struct {
	DepartmentIDs []DepartmentID `json:"department_ids"`
	Levels        []Level        `json:"levels"`
}

// HasDepartment informa se o departamento está selecionado.
func (s EligibilitySpec) HasDepartment(id DepartmentID) bool {
	for _, d := range s.DepartmentIDs {
		if d == id {
			return true
		}
	}
	return false
}

func (s EligibilitySpec) HasLevel(level Level) bool {
	for _, l := range s.Levels {
		if l == level {
			return true
		}
	}
	return false
}

type Geofence struct {
	CenterLat        float64 `json:"center_lat"`
	CenterLng        float64 `json:"center_lng"`
	RadiusMeters     float64 `json:"radius_meters"`
	Enabled          bool    `json:"enabled"`
	OffCampusAllowed bool    `json:"off_campus_allowed"`
}

// Location é a coordenada reportada pelo dispositivo no momento do voto.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Session struct {
	ID          SessionID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	Geofence    Geofence        `json:"geofence"`
	Eligibility EligibilitySpec `json:"eligibility"`
	Categories  []Category      `json:"categories"`
	TotalVotes  int64           `json:"total_votes"`

	// RejectedAttempts vem do contador em cache e pode atrasar; o número exato sai de GetSessionStats.
	RejectedAttempts int64 `json:"rejected_attempts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FindCategory devolve a categoria pelo nome, que é a chave dentro da sessão.
func (s Session) FindCategory(name string) (Category, bool) {
	for _, c := range s.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

type Category struct {
	Name       string      `json:"name"`
	MaxVotes   int         `json:"max_votes"`
	Candidates []Candidate `json:"candidates"`
}

func (c Category) HasCandidate(id CandidateID) bool {
	for _, cand := range c.Candidates {
		if cand.ID == id {
			return true
		}
	}
	return false
}

type Candidate struct {
	ID        CandidateID `json:"id"`
	Name      string      `json:"name"`
	VoteCount int64       `json:"vote_count"`
}

// Voter chega já autenticado e verificado pelo provedor de identidade.
type Voter struct {
	ID           VoterID      `json:"id"`
	DepartmentID DepartmentID `json:"department_id"`
	Level        Level        `json:"level"`
}

type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// VoteRecord é o registro imutável de um voto aceito. Slot numera os votos do
// eleitor dentro da categoria (0 para categorias de escolha única).
type VoteRecord struct {
	ID             RecordID     `json:"id"`
	VoterID        VoterID      `json:"voter_id"`
	SessionID      SessionID    `json:"session_id"`
	Category       string       `json:"category"`
	CandidateID    CandidateID  `json:"candidate_id"`
	DepartmentID   DepartmentID `json:"department_id"`
	Level          Level        `json:"level"`
	Slot           int          `json:"slot"`
	IdempotencyKey string       `json:"-"`
	Outcome        Outcome      `json:"outcome"`
	CommittedAt    time.Time    `json:"committed_at"`
}

// Key devolve a chave de admissão do registro.
func (r VoteRecord) Key() AdmissionKey {
	return AdmissionKey{VoterID: r.VoterID, SessionID: r.SessionID, Category: r.Category}
}

// RejectedAttempt guarda uma tentativa recusada; pode se repetir sem limite.
type RejectedAttempt struct {
	ID          AttemptID     `json:"id"`
	VoterID     VoterID       `json:"voter_id"`
	SessionID   SessionID     `json:"session_id"`
	Category    string        `json:"category"`
	CandidateID CandidateID   `json:"candidate_id"`
	Reason      RejectionKind `json:"reason"`
	AttemptedAt time.Time     `json:"attempted_at"`
}

// AdmissionKey é a chave (eleitor, sessão, categoria) serializada no commit.
type AdmissionKey struct {
	VoterID   VoterID
	SessionID SessionID
	Category  string
}

func (k AdmissionKey) String() string {
	return string(k.SessionID) + "|" + string(k.VoterID) + "|" + k.Category
}
