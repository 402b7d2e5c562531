package smtp

import (
	"bytes"
	"html/template"
	"mime"
	"time"
)

// OTPSubject is the subject line of the verification email.
const OTPSubject = "Votre code de vérification Kinboost"

var otpTemplate = template.Must(template.New("otp").Parse(`<div style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 40px 20px;">
  <h1 style="color: #1a1a1a; font-size: 24px; margin-bottom: 24px;">Vérification de votre email</h1>
  <p style="color: #666; font-size: 16px; line-height: 1.5; margin-bottom: 24px;">
    Voici votre code de vérification pour créer votre boutique Kinboost :
  </p>
  <div style="background: #f4f4f4; border-radius: 8px; padding: 24px; text-align: center; margin-bottom: 24px;">
    <span style="font-size: 32px; font-weight: bold; letter-spacing: 8px; color: #1a1a1a;">{{.Code}}</span>
  </div>
  <p style="color: #999; font-size: 14px; line-height: 1.5;">
    Ce code expire dans {{.Minutes}} minutes. Si vous n'avez pas demandé ce code, ignorez cet email.
  </p>
</div>
`))

// RenderOTP renders the HTML body of the verification email.
func RenderOTP(code string, ttl time.Duration) (string, error) {
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, struct {
		Code    string
		Minutes int
	}{Code: code, Minutes: int(ttl / time.Minute)})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// encodeHeader RFC 2047-encodes non-ASCII header values.
func encodeHeader(s string) string {
	return mime.QEncoding.Encode("UTF-8", s)
}
