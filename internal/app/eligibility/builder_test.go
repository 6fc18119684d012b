package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/votacao-campus/internal/domain"
)

func diretorio() []domain.College {
	return []domain.College{
		{
			ID:   "eng",
			Code: "ENG",
			Name: "Engenharia",
			Departments: []domain.Department{
				{ID: "cs", Code: "CS", Name: "Computer Science", AvailableLevels: []domain.Level{"100", "200", "300", "400"}},
				{ID: "eee", Code: "EEE", Name: "Electrical", AvailableLevels: []domain.Level{"200", "300", "500"}},
			},
		},
		{
			ID:   "sci",
			Code: "SCI",
			Name: "Ciencias",
			Departments: []domain.Department{
				{ID: "math", Code: "MTH", Name: "Mathematics", AvailableLevels: []domain.Level{"100", "200"}},
			},
		},
		{ID: "vazia", Code: "VAZ", Name: "Sem departamentos"},
	}
}

func TestToggleCollege_LeiTriEstado(t *testing.T) {
	b := NewBuilder(diretorio())
	spec := domain.EligibilitySpec{}

	spec, err := b.ToggleCollege(spec, "eng")
	require.NoError(t, err)
	state, err := b.CollegeState(spec, "eng")
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionFull, state)

	spec, err = b.ToggleCollege(spec, "eng")
	require.NoError(t, err)
	state, err = b.CollegeState(spec, "eng")
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionNone, state)
	assert.Empty(t, spec.DepartmentIDs)

	spec, err = b.ToggleDepartment(spec, "cs")
	require.NoError(t, err)
	state, err = b.CollegeState(spec, "eng")
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionPartial, state)
}

func TestToggleCollege_ParcialCompletaSelecao(t *testing.T) {
	b := NewBuilder(diretorio())
	spec := domain.EligibilitySpec{DepartmentIDs: []domain.DepartmentID{"cs"}}

	spec, err := b.ToggleCollege(spec, "eng")
	require.NoError(t, err)

	assert.Equal(t, []domain.DepartmentID{"cs", "eee"}, spec.DepartmentIDs)
}

func TestCollegeState_SemDepartamentosENone(t *testing.T) {
	b := NewBuilder(diretorio())
	spec := b.SelectAllDepartments(domain.EligibilitySpec{})

	state, err := b.CollegeState(spec, "vazia")
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionNone, state)
}

func TestToggleDepartment_Desconhecido(t *testing.T) {
	b := NewBuilder(diretorio())
	spec := domain.EligibilitySpec{DepartmentIDs: []domain.DepartmentID{"cs"}}

	got, err := b.ToggleDepartment(spec, "history")

	assert.ErrorIs(t, err, domain.ErrInvalidDepartment)
	assert.Equal(t, spec, got)
}

func TestToggleCollege_Desconhecida(t *testing.T) {
	b := NewBuilder(diretorio())

	_, err := b.ToggleCollege(domain.EligibilitySpec{}, "medicina")
	assert.ErrorIs(t, err, domain.ErrInvalidCollege)

	_, err = b.CollegeState(domain.EligibilitySpec{}, "medicina")
	assert.ErrorIs(t, err, domain.ErrInvalidCollege)
}

func TestToggleDepartment_NaoAlteraEntrada(t *testing.T) {
	b := NewBuilder(diretorio())
	original := domain.EligibilitySpec{
		DepartmentIDs: []domain.DepartmentID{"cs", "eee"},
		Levels:        []domain.Level{"200"},
	}

	got, err := b.ToggleDepartment(original, "cs")
	require.NoError(t, err)

	assert.Equal(t, []domain.DepartmentID{"cs", "eee"}, original.DepartmentIDs)
	assert.Equal(t, []domain.DepartmentID{"eee"}, got.DepartmentIDs)
	assert.Equal(t, []domain.Level{"200"}, got.Levels)
}

func TestAvailableLevels_UniaoDosSelecionados(t *testing.T) {
	b := NewBuilder(diretorio())
	spec := domain.EligibilitySpec{DepartmentIDs: []domain.DepartmentID{"eee", "math"}}

	assert.Equal(t, []domain.Level{"100", "200", "300", "500"}, b.AvailableLevels(spec))
	assert.Empty(t, b.AvailableLevels(domain.EligibilitySpec{}))
}

func TestToggleLevel(t *testing.T) {
	b := NewBuilder(diretorio())
	base := domain.EligibilitySpec{DepartmentIDs: []domain.DepartmentID{"math"}}

	tests := []struct {
		name       string
		spec       domain.EligibilitySpec
		level      domain.Level
		wantLevels []domain.Level
		wantErr    error
	}{
		{name: "adiciona nivel oferecido", spec: base, level: "200", wantLevels: []domain.Level{"200"}},
		{name: "recusa nivel nao oferecido", spec: base, level: "400", wantLevels: nil, wantErr: domain.ErrLevelNotAvailable},
		{
			name:       "remove nivel ja selecionado",
			spec:       domain.EligibilitySpec{DepartmentIDs: base.DepartmentIDs, Levels: []domain.Level{"100", "200"}},
			level:      "100",
			wantLevels: []domain.Level{"200"},
		},
		{
			name:       "remove nivel inerte",
			spec:       domain.EligibilitySpec{Levels: []domain.Level{"500"}},
			level:      "500",
			wantLevels: []domain.Level{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.ToggleLevel(tt.spec, tt.level)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.spec, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevels, got.Levels)
		})
	}
}

func TestToggleDepartment_RemocaoMantemNiveisInertes(t *testing.T) {
	b := NewBuilder(diretorio())
	spec := domain.EligibilitySpec{
		DepartmentIDs: []domain.DepartmentID{"eee"},
		Levels:        []domain.Level{"500"},
	}

	spec, err := b.ToggleDepartment(spec, "eee")
	require.NoError(t, err)

	assert.Equal(t, []domain.Level{"500"}, spec.Levels)
	assert.False(t, Matches(spec, domain.Voter{DepartmentID: "eee", Level: "500"}))
}

func TestSelectAllEClear(t *testing.T) {
	b := NewBuilder(diretorio())
	spec := domain.EligibilitySpec{Levels: []domain.Level{"100"}}

	all := b.SelectAllDepartments(spec)
	assert.Equal(t, []domain.DepartmentID{"cs", "eee", "math"}, all.DepartmentIDs)
	assert.Equal(t, []domain.Level{"100"}, all.Levels)

	cleared := b.Clear(all)
	assert.Empty(t, cleared.DepartmentIDs)
	assert.Empty(t, cleared.Levels)
}

func TestValidate(t *testing.T) {
	b := NewBuilder(diretorio())

	got, err := b.Validate(domain.EligibilitySpec{
		DepartmentIDs: []domain.DepartmentID{"math", "cs", "math"},
		Levels:        []domain.Level{"200", "100", "200"},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.DepartmentID{"cs", "math"}, got.DepartmentIDs)
	assert.Equal(t, []domain.Level{"100", "200"}, got.Levels)

	_, err = b.Validate(domain.EligibilitySpec{DepartmentIDs: []domain.DepartmentID{"nope"}})
	assert.ErrorIs(t, err, domain.ErrInvalidDepartment)
}

func TestMatches_CenarioB(t *testing.T) {
	spec := domain.EligibilitySpec{
		DepartmentIDs: []domain.DepartmentID{"cs", "eee"},
		Levels:        []domain.Level{"200", "300"},
	}

	assert.True(t, Matches(spec, domain.Voter{ID: "v1", DepartmentID: "cs", Level: "200"}))
	assert.False(t, Matches(spec, domain.Voter{ID: "v2", DepartmentID: "math", Level: "200"}))
	assert.False(t, Matches(spec, domain.Voter{ID: "v3", DepartmentID: "cs", Level: "100"}))
}

func TestApply(t *testing.T) {
	b := NewBuilder(diretorio())

	view, err := b.Apply(domain.EligibilityOp{Kind: domain.OpToggleCollege, CollegeID: "sci"})
	require.NoError(t, err)

	assert.Equal(t, []domain.DepartmentID{"math"}, view.Spec.DepartmentIDs)
	assert.Equal(t, []domain.Level{"100", "200"}, view.AvailableLevels)
	require.Len(t, view.Colleges, 3)
	assert.Equal(t, domain.CollegeSelection{CollegeID: "eng", State: domain.SelectionNone}, view.Colleges[0])
	assert.Equal(t, domain.CollegeSelection{CollegeID: "sci", State: domain.SelectionFull}, view.Colleges[1])

	_, err = b.Apply(domain.EligibilityOp{Kind: "desconhecida"})
	assert.ErrorIs(t, err, domain.ErrInvalidEligibility)

	_, err = b.Apply(domain.EligibilityOp{Kind: domain.OpToggleLevel, Level: "900"})
	assert.ErrorIs(t, err, domain.ErrLevelNotAvailable)
}
