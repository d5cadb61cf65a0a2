package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/Cozta1/sistema-encomendas-V2/internal/model"
)

var roleLabels = map[string]string{
	model.RoleAdministrator: "Administrador",
	model.RoleManager:       "Gerente",
	model.RoleMember:        "Membro",
}

func roleLabel(role string) string {
	if l, ok := roleLabels[role]; ok {
		return l
	}
	return role
}

func welcomeEmail(name string) (string, string) {
	body := fmt.Sprintf(`<p>Olá, %s!</p>
<p>Sua conta no Sistema de Encomendas foi criada com sucesso.</p>
<p>Crie uma equipe ou aceite um convite para começar.</p>`, name)
	return "Bem-vindo ao Sistema de Encomendas", body
}

func passwordResetEmail(name, publicURL, token string, expiresAt time.Time) (string, string) {
	link := strings.TrimRight(publicURL, "/") + "/reset-password?token=" + token
	body := fmt.Sprintf(`<p>Olá, %s.</p>
<p>Recebemos uma solicitação para redefinir sua senha.</p>
<p><a href="%s">Clique aqui para criar uma nova senha</a>.</p>
<p>O link é válido até %s. Se você não fez esta solicitação, ignore este email.</p>`,
		name, link, expiresAt.UTC().Format("02/01/2006 15:04"))
	return "Redefinição de senha", body
}

func invitationEmail(teamName, inviter, role, publicURL string, expiresAt time.Time) (string, string) {
	link := strings.TrimRight(publicURL, "/") + "/invitations"
	body := fmt.Sprintf(`<p>%s convidou você para a equipe <strong>%s</strong> como %s.</p>
<p><a href="%s">Acesse seus convites</a> para aceitar ou recusar.</p>
<p>O convite expira em %s.</p>`,
		inviter, teamName, roleLabel(role), link, expiresAt.UTC().Format("02/01/2006 15:04"))
	return fmt.Sprintf("Convite para a equipe %s", teamName), body
}
