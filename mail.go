package authkit

import "fmt"

// passwordResetMail renders the text and HTML bodies for a reset link.
// The link dies with the embedded token, one hour after issuance.
func passwordResetMail(link string) (text, html string) {
	text = fmt.Sprintf(`Hello,

We received a request to reset your password.

Open the link below to choose a new one. The link expires in 1 hour.

%s

If you did not request a password reset, you can ignore this email; your
password will not change.
`, link)

	html = fmt.Sprintf(`<html>
  <body>
    <p>Hello,</p>
    <p>We received a request to reset your password.</p>
    <p><a href="%s">Reset your password</a> (the link expires in 1 hour).</p>
    <p>If you did not request a password reset, you can ignore this email;
    your password will not change.</p>
  </body>
</html>
`, link)

	return text, html
}

// emailVerificationMail renders the text and HTML bodies for a verification
// link.
func emailVerificationMail(link string) (text, html string) {
	text = fmt.Sprintf(`Welcome!

Please confirm your email address by opening the link below:

%s

If you did not create an account, you can ignore this email.
`, link)

	html = fmt.Sprintf(`<html>
  <body>
    <p>Welcome!</p>
    <p>Please <a href="%s">confirm your email address</a>.</p>
    <p>If you did not create an account, you can ignore this email.</p>
  </body>
</html>
`, link)

	return text, html
}
