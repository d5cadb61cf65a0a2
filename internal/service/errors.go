package service

import (
	"errors"
	"sort"
	"strings"
)

// Domain errors. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrValidation          = errors.New("dados inválidos")
	ErrTenantMismatch      = errors.New("referência pertence a outra equipe")
	ErrPermissionDenied    = errors.New("permissão insuficiente")
	ErrNotFound            = errors.New("registro não encontrado")
	ErrDuplicateCode       = errors.New("já existe um registro com este código na equipe")
	ErrDuplicateMembership = errors.New("usuário já é membro da equipe")
	ErrDuplicateInvitation = errors.New("já existe um convite pendente para este email")
	ErrDuplicateEmail      = errors.New("email já cadastrado")
	ErrAlreadyExists       = errors.New("já existe uma entrega para esta encomenda")
	ErrInvalidInvitation   = errors.New("convite inválido ou expirado")
	ErrEmailMismatch       = errors.New("este convite não é para o seu email")
	ErrLastAdministrator   = errors.New("a equipe precisa manter ao menos um administrador")
	ErrMainAdministrator   = errors.New("o administrador principal não pode ser removido nem rebaixado")
	ErrInvalidCredentials  = errors.New("credenciais inválidas")
	ErrInvalidToken        = errors.New("token inválido ou expirado")
)

// ValidationError carries per-field messages and matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// fieldErrors accumulates validation failures for one entity.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
