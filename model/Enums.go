package model

// CredentialType tells how Credential.Value must be interpreted
type CredentialType string

const (
	// CredTypePassword values are encoded password hashes (argon2id, or bcrypt for imported accounts)
	CredTypePassword CredentialType = "password"
)

func (ct CredentialType) IsValid() bool {
	switch ct {
	case CredTypePassword:
		return true
	}
	return false
}
