package view

import (
	"bytes"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welfaredesk/welfaredesk/internal/rbac"
	"github.com/welfaredesk/welfaredesk/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(nil, nil)
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestModuleLabel(t *testing.T) {
	assert.Equal(t, "Social Justice", ModuleLabel(rbac.ModuleSocialJustice))
	assert.Equal(t, "Health", ModuleLabel(rbac.ModuleHealth))
}

func TestVisibleNavFollowsPermissions(t *testing.T) {
	nav := []NavLink{
		{Name: "leprosy", Title: "Leprosy", Module: rbac.ModuleHealth},
		{Name: "cbucbo", Title: "CBU/CBO Groups", Module: rbac.ModuleSocialJustice},
	}
	user := &rbac.User{ID: "u1", Permissions: []string{"health:view"}}
	data := TemplateData{Nav: nav, Can: rbac.For(user), CurrentPath: "/leprosy/12"}

	visible := data.VisibleNav()
	require.Len(t, visible, 1)
	assert.Equal(t, "/leprosy", visible[0].Href())
	assert.True(t, data.Active("/leprosy"))
	assert.False(t, data.Active("/lep"))
}

func TestPageCollectsRequestState(t *testing.T) {
	csrf := shared.NewCSRFManager("secret")
	engine, err := NewEngine(csrf, []NavLink{{Name: "leprosy", Title: "Leprosy", Module: rbac.ModuleHealth}})
	require.NoError(t, err)

	sess := &shared.Session{ID: "s1"}
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Saved"})
	user := &rbac.User{ID: "u1", Name: "Asha", Role: rbac.RoleAdmin}
	req := httptest.NewRequest("GET", "/leprosy", nil)
	ctx := rbac.ContextWithUser(shared.ContextWithSession(req.Context(), sess), user)
	req = req.WithContext(ctx)

	data := engine.Page(req, "Permissions", map[string]any{})
	assert.NotEmpty(t, data.CSRFToken)
	require.NotNil(t, data.Flash)
	assert.Equal(t, "Saved", data.Flash.Message)
	assert.True(t, data.Can.Admin())
	assert.Nil(t, sess.PopFlash(), "flash is consumed once")
}

func TestFuncMapHelpers(t *testing.T) {
	engine, err := NewEngine(nil, nil)
	require.NoError(t, err)
	tpl, err := engine.templates.New("helpers").Parse(
		`{{field .V "a"}}|{{join (fieldList .V "b") ","}}|{{contains (fieldList .V "b") "y"}}|{{with dict "k" 1}}{{.k}}{{end}}`)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tpl.Execute(&buf, map[string]any{"V": url.Values{"a": {"1"}, "b": {"x", "y"}}}))
	assert.Equal(t, "1|x,y|true|1", buf.String())
}

func TestRenderLoginPage(t *testing.T) {
	engine, err := NewEngine(nil, nil)
	require.NoError(t, err)
	var buf strings.Builder
	data := TemplateData{Title: "Sign in", Data: map[string]any{"Form": map[string]string{"Email": "", "Next": ""}, "Errors": map[string]string{}}}
	require.NoError(t, engine.RenderTo(&buf, "pages/login.html", data))
	assert.Contains(t, buf.String(), `action="/login"`)
}
