package model

// Banner levels
const (
	BannerSuccess = "success"
	BannerWarning = "warning"
	BannerError   = "error"
)

// Banner is the user-facing outcome of an action.
type Banner struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func SuccessBanner(msg string) Banner { return Banner{Level: BannerSuccess, Message: msg} }
func WarningBanner(msg string) Banner { return Banner{Level: BannerWarning, Message: msg} }
func ErrorBanner(msg string) Banner   { return Banner{Level: BannerError, Message: msg} }
