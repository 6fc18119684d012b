package postgres

import (
	"time"

	"github.com/marcelojr/votacao-campus/internal/domain"
)

type sessionModel struct {
	ID                  string    `gorm:"column:id;primaryKey"`
	Name                string    `gorm:"column:name"`
	Description         string    `gorm:"column:description"`
	StartTime           time.Time `gorm:"column:start_time;index"`
	EndTime             time.Time `gorm:"column:end_time"`
	GeoCenterLat        float64   `gorm:"column:geo_center_lat"`
	GeoCenterLng        float64   `gorm:"column:geo_center_lng"`
	GeoRadiusMeters     float64   `gorm:"column:geo_radius_meters"`
	GeoEnabled          bool      `gorm:"column:geo_enabled"`
	GeoOffCampusAllowed bool      `gorm:"column:geo_off_campus_allowed"`
	TotalVotes          int64     `gorm:"column:total_votes;not null;default:0"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (sessionModel) TableName() string {
	return "sessions"
}

type sessionDepartmentModel struct {
	SessionID    string `gorm:"column:session_id;primaryKey"`
	DepartmentID string `gorm:"column:department_id;primaryKey"`
}

func (sessionDepartmentModel) TableName() string {
	return "session_departments"
}

type sessionLevelModel struct {
	SessionID string `gorm:"column:session_id;primaryKey"`
	Level     string `gorm:"column:level;primaryKey"`
}

func (sessionLevelModel) TableName() string {
	return "session_levels"
}

// Categoria é identificada pelo nome dentro da sessão.
type categoryModel struct {
	SessionID string `gorm:"column:session_id;primaryKey"`
	Name      string `gorm:"column:name;primaryKey"`
	Position  int    `gorm:"column:position"`
	MaxVotes  int    `gorm:"column:max_votes;not null;default:1"`
}

func (categoryModel) TableName() string {
	return "categories"
}

// Candidato é identificado pelo id dentro da sessão; o mesmo id pode se repetir em outra sessão.
type candidateModel struct {
	SessionID    string `gorm:"column:session_id;primaryKey;index:idx_candidates_category,priority:1"`
	ID           string `gorm:"column:id;primaryKey"`
	CategoryName string `gorm:"column:category_name;index:idx_candidates_category,priority:2"`
	Name         string `gorm:"column:name"`
	Position     int    `gorm:"column:position"`
	VoteCount    int64  `gorm:"column:vote_count;not null;default:0"`
}

func (candidateModel) TableName() string {
	return "candidates"
}

type collegeModel struct {
	ID       string `gorm:"column:id;primaryKey"`
	Code     string `gorm:"column:code;uniqueIndex"`
	Name     string `gorm:"column:name"`
	Position int    `gorm:"column:position"`
}

func (collegeModel) TableName() string {
	return "colleges"
}

type departmentModel struct {
	ID        string `gorm:"column:id;primaryKey"`
	CollegeID string `gorm:"column:college_id;index"`
	Code      string `gorm:"column:code;uniqueIndex"`
	Name      string `gorm:"column:name"`
	Position  int    `gorm:"column:position"`
}

func (departmentModel) TableName() string {
	return "departments"
}

type departmentLevelModel struct {
	DepartmentID string `gorm:"column:department_id;primaryKey"`
	Level        string `gorm:"column:level;primaryKey"`
}

func (departmentLevelModel) TableName() string {
	return "department_levels"
}

// studentModel é alimentado pela importação externa de alunos; o motor só lê.
type studentModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	DepartmentID string    `gorm:"column:department_id;index:idx_students_eligibility,priority:1"`
	Level        string    `gorm:"column:level;index:idx_students_eligibility,priority:2"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (studentModel) TableName() string {
	return "students"
}

// Os dois índices únicos garantem no banco o limite de votos por chave e a
// proibição de repetir o mesmo candidato, mesmo que o lock por chave falhe.
type voteRecordModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	VoterID        string    `gorm:"column:voter_id;uniqueIndex:idx_vote_slot,priority:1;uniqueIndex:idx_vote_candidate,priority:1"`
	SessionID      string    `gorm:"column:session_id;index;uniqueIndex:idx_vote_slot,priority:2;uniqueIndex:idx_vote_candidate,priority:2"`
	Category       string    `gorm:"column:category;uniqueIndex:idx_vote_slot,priority:3;uniqueIndex:idx_vote_candidate,priority:3"`
	Slot           int       `gorm:"column:slot;uniqueIndex:idx_vote_slot,priority:4"`
	CandidateID    string    `gorm:"column:candidate_id;uniqueIndex:idx_vote_candidate,priority:4"`
	DepartmentID   string    `gorm:"column:department_id"`
	Level          string    `gorm:"column:level"`
	IdempotencyKey string    `gorm:"column:idempotency_key"`
	Outcome        string    `gorm:"column:outcome"`
	CommittedAt    time.Time `gorm:"column:committed_at"`
}

func (voteRecordModel) TableName() string {
	return "vote_records"
}

type rejectedAttemptModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	VoterID     string    `gorm:"column:voter_id"`
	SessionID   string    `gorm:"column:session_id;index:idx_attempts_session_reason,priority:1"`
	Category    string    `gorm:"column:category"`
	CandidateID string    `gorm:"column:candidate_id"`
	Reason      string    `gorm:"column:reason;index:idx_attempts_session_reason,priority:2"`
	AttemptedAt time.Time `gorm:"column:attempted_at"`
}

func (rejectedAttemptModel) TableName() string {
	return "rejected_attempts"
}

// Models lista as tabelas na ordem usada pelas migrations e pelos testes.
func Models() []any {
	return []any{
		&collegeModel{},
		&departmentModel{},
		&departmentLevelModel{},
		&studentModel{},
		&sessionModel{},
		&sessionDepartmentModel{},
		&sessionLevelModel{},
		&categoryModel{},
		&candidateModel{},
		&voteRecordModel{},
		&rejectedAttemptModel{},
	}
}

// Tables devolve os nomes das tabelas em ordem reversa de dependência, para rollback.
func Tables() []string {
	return []string{
		"rejected_attempts",
		"vote_records",
		"candidates",
		"categories",
		"session_levels",
		"session_departments",
		"sessions",
		"students",
		"department_levels",
		"departments",
		"colleges",
	}
}

func departmentStrings(ids []domain.DepartmentID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func levelStrings(levels []domain.Level) []string {
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = string(l)
	}
	return out
}
