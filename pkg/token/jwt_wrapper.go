package token

// 這些變數會在測試時被覆蓋，模擬簽發/解析失敗
var (
	GenerateJWTFunc = GenerateJWT
	ParseJWTFunc    = ParseJWT
)
