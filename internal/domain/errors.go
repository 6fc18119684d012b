package domain

import "errors"

var (
	ErrNotFound = errors.New("registro nao encontrado")

	// ErrDuplicateVote é devolvido pelo repositório quando a inserção condicional perde a corrida.
	ErrDuplicateVote = errors.New("voto duplicado para a chave de admissao")

	ErrInvalidSession     = errors.New("sessao invalida")
	ErrInvalidTimeWindow  = errors.New("janela de votacao invalida")
	ErrInvalidGeofence    = errors.New("geofence invalida")
	ErrInvalidDepartment  = errors.New("departamento desconhecido")
	ErrInvalidCollege     = errors.New("faculdade desconhecida")
	ErrLevelNotAvailable  = errors.New("nivel nao oferecido pelos departamentos selecionados")
	ErrInvalidEligibility = errors.New("operacao de elegibilidade invalida")
	ErrVoterNotFound      = errors.New("eleitor nao encontrado")
	ErrInvalidCastRequest = errors.New("requisicao de voto invalida")

	// ErrTransient marca falhas de infraestrutura; a mesma requisição pode ser repetida.
	ErrTransient         = errors.New("falha transitoria")
	ErrSnapshotsDisabled = errors.New("publicacao de resultados nao configurada")
)
