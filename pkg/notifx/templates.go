package notifx

// Built-in template names.
const (
	TemplateInviteUser = "invite_user"
)

// InviteUserData is the data the invitation template renders with.
type InviteUserData struct {
	Name      string
	OrgName   string
	InviteURL string
}

const inviteUserTemplate = `<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #1f2933; margin: 0; padding: 24px;">
    <div style="max-width: 520px; margin: 0 auto;">
      <h2 style="color: #102a43;">You&#39;re invited to join {{.OrgName}}</h2>
      <p>Hi{{if .Name}} {{.Name}}{{end}},</p>
      <p>
        You have been invited to join <strong>{{.OrgName}}</strong> on Konnected.
        Click the button below to accept the invitation and set up your account.
      </p>
      <p style="margin: 32px 0;">
        <a href="{{.InviteURL}}"
           style="background: #2563eb; color: #ffffff; padding: 12px 24px; border-radius: 6px; text-decoration: none;">
          Accept invitation
        </a>
      </p>
      <p style="color: #627d98; font-size: 13px;">
        This invitation expires in 7 days. If you weren&#39;t expecting it you can
        safely ignore this email.
      </p>
    </div>
  </body>
</html>`

func (c *Client) registerBuiltinTemplates() error {
	return c.templates.Register(TemplateInviteUser, inviteUserTemplate)
}
