package entities

import "errors"

// User is the single registered account of the demo. VoicePrint holds the
// recording captured at registration as a data URI.
type User struct {
	ID         string `json:"id" bson:"_id"`
	VoicePrint string `json:"voicePrint" bson:"voice_print"`
}

// Domain validation methods
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.New("username is required")
	}
	if u.VoicePrint == "" {
		return errors.New("voice print is required")
	}
	return nil
}

// AccountStatus is the label shown on the dashboard for an account.
func AccountStatus(authenticated bool) string {
	if authenticated {
		return "Verified"
	}
	return "Unverified"
}
