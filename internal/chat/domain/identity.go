package domain

// Identity 呼叫端明確傳入的身分，不讀全域狀態
type Identity struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}
