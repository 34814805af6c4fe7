package helpers

import (
	"fmt"
	"html"
)

func BuildPasswordResetHTML(resetLink string, validMinutes int) string {
	link := html.EscapeString(resetLink)
	return fmt.Sprintf(`
<html>
  <body style="font-family:Arial,sans-serif; background:#0f0f14;">
    <table width="100%%" cellpadding="0" cellspacing="0" bgcolor="#0f0f14">
      <tr>
        <td align="center" style="padding:32px 0;">
          <table width="500" bgcolor="#1b1b24" cellpadding="24" cellspacing="0" style="border-radius:8px;">
            <tr>
              <td>
                <h2 style="color:#f5c542; margin-top:0;">Reset your JackPoints password</h2>
                <p style="font-size:16px; color:#eee;">We received a request to reset the password for your account.</p>
                <p style="color:#eee;">To choose a new password, follow the link below:</p>
                <p>
                  <a href="%s" style="display:inline-block;padding:12px 24px;background:#f5c542;color:#111;text-decoration:none;border-radius:5px;font-weight:bold;">
                    Reset password
                  </a>
                </p>
                <p style="font-size:14px; color:#aaa;">The link is valid for %d minutes and can be used once.</p>
                <p style="font-size:12px; color:#888;">If the button does not work, copy this link: %s</p>
                <hr style="margin:32px 0 16px 0; border:0; border-top:1px solid #333;">
                <div style="font-size:12px; color:#888;">If you did not request a password reset, just ignore this email.</div>
              </td>
            </tr>
          </table>
        </td>
      </tr>
    </table>
  </body>
</html>
`, link, validMinutes, link)
}
