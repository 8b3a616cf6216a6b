package transfer

type AccountConnection struct {
	Platform    string `json:"platform"`
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
	AccessToken string `json:"access_token"` // opaque, encrypted before storage
}
