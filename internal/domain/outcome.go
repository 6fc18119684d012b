package domain

import "time"

// RejectionKind é o conjunto fechado de motivos de recusa de um voto.
type RejectionKind string

const (
	RejectSessionNotFound       RejectionKind = "session_not_found"
	RejectSessionNotActive      RejectionKind = "session_not_active"
	RejectNotEligible           RejectionKind = "not_eligible"
	RejectInvalidCandidate      RejectionKind = "invalid_candidate"
	RejectDuplicateVote         RejectionKind = "duplicate_vote"
	RejectOutOfRange            RejectionKind = "out_of_range"
	RejectLocationRequired      RejectionKind = "location_required"
	RejectInvalidGeofenceConfig RejectionKind = "invalid_geofence_config"
)

// RejectionKinds lista todos os motivos na ordem do pipeline de admissão.
func RejectionKinds() []RejectionKind {
	return []RejectionKind{
		RejectSessionNotFound,
		RejectSessionNotActive,
		RejectNotEligible,
		RejectInvalidCandidate,
		RejectDuplicateVote,
		RejectOutOfRange,
		RejectLocationRequired,
		RejectInvalidGeofenceConfig,
	}
}

func (k RejectionKind) Valid() bool {
	for _, known := range RejectionKinds() {
		if k == known {
			return true
		}
	}
	return false
}

type CastRequest struct {
	VoterID        VoterID
	SessionID      SessionID
	Category       string
	CandidateID    CandidateID
	Location       *Location
	IdempotencyKey string
}

func (r CastRequest) Key() AdmissionKey {
	return AdmissionKey{VoterID: r.VoterID, SessionID: r.SessionID, Category: r.Category}
}

// CastResult é a decisão de admissão. Reason só é preenchido quando Accepted é falso.
type CastResult struct {
	Accepted bool          `json:"accepted"`
	Reason   RejectionKind `json:"reason,omitempty"`
	Replayed bool          `json:"replayed,omitempty"`
	Record   *VoteRecord   `json:"record,omitempty"`
}

func Accept(record VoteRecord) CastResult {
	return CastResult{Accepted: true, Record: &record}
}

func Reject(reason RejectionKind) CastResult {
	return CastResult{Reason: reason}
}

// SelectionState é o estado agregado (derivado) da seleção de uma faculdade.
type SelectionState string

const (
	SelectionNone    SelectionState = "none"
	SelectionPartial SelectionState = "partial"
	SelectionFull    SelectionState = "full"
)

type EligibilityOpKind string

const (
	OpToggleDepartment EligibilityOpKind = "toggle-department"
	OpToggleCollege    EligibilityOpKind = "toggle-college"
	OpToggleLevel      EligibilityOpKind = "toggle-level"
	OpSelectAll        EligibilityOpKind = "select-all"
	OpClear            EligibilityOpKind = "clear"
)

// EligibilityOp é uma edição sobre uma spec ainda não persistida.
type EligibilityOp struct {
	Kind         EligibilityOpKind `json:"op"`
	Spec         EligibilitySpec   `json:"spec"`
	DepartmentID DepartmentID      `json:"department_id,omitempty"`
	CollegeID    CollegeID         `json:"college_id,omitempty"`
	Level        Level             `json:"level,omitempty"`
}

type CollegeSelection struct {
	CollegeID CollegeID      `json:"college_id"`
	State     SelectionState `json:"state"`
}

// EligibilityView acompanha a spec com os estados derivados para a tela de seleção.
type EligibilityView struct {
	Spec            EligibilitySpec    `json:"spec"`
	Colleges        []CollegeSelection `json:"colleges"`
	AvailableLevels []Level            `json:"available_levels"`
}

type CandidateStats struct {
	CandidateID CandidateID `json:"candidate_id"`
	Name        string      `json:"name"`
	VoteCount   int64       `json:"vote_count"`
	Percentage  string      `json:"percentage"`
}

type CategoryStats struct {
	Name       string           `json:"name"`
	TotalVotes int64            `json:"total_votes"`
	Candidates []CandidateStats `json:"candidates"`
}

// SessionStats é a visão de leitura recalculada a cada consulta.
type SessionStats struct {
	SessionID         SessionID               `json:"session_id"`
	EligibleStudents  int64                   `json:"eligible_students"`
	TotalVotes        int64                   `json:"total_votes"`
	UniqueVoters      int64                   `json:"unique_voters"`
	VotersOutsideSpec int64                   `json:"voters_outside_spec"`
	DuplicateAttempts int64                   `json:"duplicate_attempts"`
	RejectedVotes     int64                   `json:"rejected_votes"`
	RejectionsByKind  map[RejectionKind]int64 `json:"rejections_by_kind"`
	TurnoutPercentage string                  `json:"turnout_percentage"`
	Categories        []CategoryStats         `json:"categories"`
	ComputedAt        time.Time               `json:"computed_at"`
}

// VoteTally resume os registros aceitos de uma sessão.
type VoteTally struct {
	TotalVotes         int64
	UniqueVoters       int64
	UniqueVotersInSpec int64
}
