// Pacote eligibility monta e edita a EligibilitySpec de uma sessão sobre o diretório de faculdades.
// Nenhuma função aqui acessa armazenamento; todas devolvem uma nova spec.
package eligibility

import (
	"fmt"
	"sort"

	"github.com/marcelojr/votacao-campus/internal/domain"
)

// Builder indexa o diretório para responder às edições em tempo constante por departamento.
type Builder struct {
	colleges    []domain.College
	departments map[domain.DepartmentID]domain.Department
	byCollege   map[domain.CollegeID][]domain.DepartmentID
	allDepts    []domain.DepartmentID
}

func NewBuilder(colleges []domain.College) *Builder {
	b := &Builder{
		colleges:    colleges,
		departments: make(map[domain.DepartmentID]domain.Department),
		byCollege:   make(map[domain.CollegeID][]domain.DepartmentID, len(colleges)),
	}
	for _, c := range colleges {
		ids := make([]domain.DepartmentID, 0, len(c.Departments))
		for _, d := range c.Departments {
			if d.CollegeID == "" {
				d.CollegeID = c.ID
			}
			b.departments[d.ID] = d
			ids = append(ids, d.ID)
			b.allDepts = append(b.allDepts, d.ID)
		}
		b.byCollege[c.ID] = ids
	}
	return b
}

func (b *Builder) ToggleDepartment(spec domain.EligibilitySpec, id domain.DepartmentID) (domain.EligibilitySpec, error) {
	if _, ok := b.departments[id]; !ok {
		return spec, fmt.Errorf("%w: %s", domain.ErrInvalidDepartment, id)
	}
	set := toSet(spec.DepartmentIDs)
	if _, ok := set[id]; ok {
		delete(set, id)
	} else {
		set[id] = struct{}{}
	}
	// Níveis já escolhidos continuam na spec; sem departamento que os ofereça ficam inertes.
	return domain.EligibilitySpec{DepartmentIDs: sortedIDs(set), Levels: copyLevels(spec.Levels)}, nil
}

// ToggleCollege seleciona todos os departamentos da faculdade, ou remove todos se já estiverem selecionados.
func (b *Builder) ToggleCollege(spec domain.EligibilitySpec, id domain.CollegeID) (domain.EligibilitySpec, error) {
	depts, ok := b.byCollege[id]
	if !ok {
		return spec, fmt.Errorf("%w: %s", domain.ErrInvalidCollege, id)
	}
	set := toSet(spec.DepartmentIDs)
	full := b.state(set, depts) == domain.SelectionFull
	for _, d := range depts {
		if full {
			delete(set, d)
		} else {
			set[d] = struct{}{}
		}
	}
	return domain.EligibilitySpec{DepartmentIDs: sortedIDs(set), Levels: copyLevels(spec.Levels)}, nil
}

func (b *Builder) CollegeState(spec domain.EligibilitySpec, id domain.CollegeID) (domain.SelectionState, error) {
	depts, ok := b.byCollege[id]
	if !ok {
		return domain.SelectionNone, fmt.Errorf("%w: %s", domain.ErrInvalidCollege, id)
	}
	return b.state(toSet(spec.DepartmentIDs), depts), nil
}

func (b *Builder) state(set map[domain.DepartmentID]struct{}, depts []domain.DepartmentID) domain.SelectionState {
	if len(depts) == 0 {
		return domain.SelectionNone
	}
	selected := 0
	for _, d := range depts {
		if _, ok := set[d]; ok {
			selected++
		}
	}
	switch selected {
	case 0:
		return domain.SelectionNone
	case len(depts):
		return domain.SelectionFull
	default:
		return domain.SelectionPartial
	}
}

// AvailableLevels devolve a união ordenada dos níveis oferecidos pelos departamentos selecionados.
func (b *Builder) AvailableLevels(spec domain.EligibilitySpec) []domain.Level {
	set := make(map[domain.Level]struct{})
	for _, id := range spec.DepartmentIDs {
		d, ok := b.departments[id]
		if !ok {
			continue
		}
		for _, l := range d.AvailableLevels {
			set[l] = struct{}{}
		}
	}
	levels := make([]domain.Level, 0, len(set))
	for l := range set {
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	return levels
}

func (b *Builder) ToggleLevel(spec domain.EligibilitySpec, level domain.Level) (domain.EligibilitySpec, error) {
	levels := copyLevels(spec.Levels)
	for i, l := range levels {
		if l == level {
			levels = append(levels[:i], levels[i+1:]...)
			return domain.EligibilitySpec{DepartmentIDs: copyIDs(spec.DepartmentIDs), Levels: levels}, nil
		}
	}

	available := false
	for _, l := range b.AvailableLevels(spec) {
		if l == level {
			available = true
			break
		}
	}
	if !available {
		return spec, fmt.Errorf("%w: %s", domain.ErrLevelNotAvailable, level)
	}

	levels = append(levels, level)
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	return domain.EligibilitySpec{DepartmentIDs: copyIDs(spec.DepartmentIDs), Levels: levels}, nil
}

func (b *Builder) SelectAllDepartments(spec domain.EligibilitySpec) domain.EligibilitySpec {
	return domain.EligibilitySpec{DepartmentIDs: sortedIDs(toSet(b.allDepts)), Levels: copyLevels(spec.Levels)}
}

func (b *Builder) Clear(domain.EligibilitySpec) domain.EligibilitySpec {
	return domain.EligibilitySpec{DepartmentIDs: []domain.DepartmentID{}, Levels: []domain.Level{}}
}

// Validate confere se todos os departamentos existem e devolve a spec normalizada (ordenada, sem repetição).
func (b *Builder) Validate(spec domain.EligibilitySpec) (domain.EligibilitySpec, error) {
	for _, id := range spec.DepartmentIDs {
		if _, ok := b.departments[id]; !ok {
			return spec, fmt.Errorf("%w: %s", domain.ErrInvalidDepartment, id)
		}
	}
	levels := make(map[domain.Level]struct{}, len(spec.Levels))
	for _, l := range spec.Levels {
		levels[l] = struct{}{}
	}
	normalized := make([]domain.Level, 0, len(levels))
	for l := range levels {
		normalized = append(normalized, l)
	}
	sort.Slice(normalized, func(i, j int) bool { return normalized[i] < normalized[j] })
	return domain.EligibilitySpec{DepartmentIDs: sortedIDs(toSet(spec.DepartmentIDs)), Levels: normalized}, nil
}

// Apply executa uma operação e devolve a spec resultante junto com os estados derivados.
func (b *Builder) Apply(op domain.EligibilityOp) (domain.EligibilityView, error) {
	var (
		spec domain.EligibilitySpec
		err  error
	)
	switch op.Kind {
	case domain.OpToggleDepartment:
		spec, err = b.ToggleDepartment(op.Spec, op.DepartmentID)
	case domain.OpToggleCollege:
		spec, err = b.ToggleCollege(op.Spec, op.CollegeID)
	case domain.OpToggleLevel:
		spec, err = b.ToggleLevel(op.Spec, op.Level)
	case domain.OpSelectAll:
		spec = b.SelectAllDepartments(op.Spec)
	case domain.OpClear:
		spec = b.Clear(op.Spec)
	default:
		return domain.EligibilityView{}, fmt.Errorf("%w: %q", domain.ErrInvalidEligibility, op.Kind)
	}
	if err != nil {
		return domain.EligibilityView{}, err
	}
	return b.View(spec), nil
}

func (b *Builder) View(spec domain.EligibilitySpec) domain.EligibilityView {
	set := toSet(spec.DepartmentIDs)
	colleges := make([]domain.CollegeSelection, 0, len(b.colleges))
	for _, c := range b.colleges {
		colleges = append(colleges, domain.CollegeSelection{
			CollegeID: c.ID,
			State:     b.state(set, b.byCollege[c.ID]),
		})
	}
	return domain.EligibilityView{
		Spec:            spec,
		Colleges:        colleges,
		AvailableLevels: b.AvailableLevels(spec),
	}
}

// Matches informa se o eleitor pertence a um departamento e a um nível selecionados.
func Matches(spec domain.EligibilitySpec, voter domain.Voter) bool {
	return spec.HasDepartment(voter.DepartmentID) && spec.HasLevel(voter.Level)
}

func toSet(ids []domain.DepartmentID) map[domain.DepartmentID]struct{} {
	set := make(map[domain.DepartmentID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortedIDs(set map[domain.DepartmentID]struct{}) []domain.DepartmentID {
	ids := make([]domain.DepartmentID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func copyIDs(ids []domain.DepartmentID) []domain.DepartmentID {
	out := make([]domain.DepartmentID, len(ids))
	copy(out, ids)
	return out
}

func copyLevels(levels []domain.Level) []domain.Level {
	out := make([]domain.Level, len(levels))
	copy(out, levels)
	return out
}
