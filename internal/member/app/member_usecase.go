package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront_support_service/internal/member/domain"
	"storefront_support_service/internal/member/repository"
	"storefront_support_service/pkg/config"
	"storefront_support_service/pkg/database"
	"storefront_support_service/pkg/logger"
	token "storefront_support_service/pkg/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemberUseCase 這裡封裝了對外提供的應用服務
type MemberUseCase interface {
	Register(ctx context.Context, email, password, role string) error
	FindMember(ctx context.Context, param *domain.MemberQuery) (*domain.Member, error)
	ListMembers(ctx context.Context) ([]domain.Member, error)
	UpdateRole(ctx context.Context, memberID, role string) error
	Login(ctx context.Context, email, password string, now time.Time) (string, error)
	Logout(ctx context.Context, token string) error
	ForceLogout(ctx context.Context, memberID string) error
	CheckSessionTimeout(ctx context.Context, token string) (bool, error)
	ReconnectSession(ctx context.Context, token string) error
}

type memberUseCase struct {
	memberRepo   repository.MemberRepository
	sessionTTL   time.Duration
	redisRepo    database.RedisRepository[domain.MemberSession]
	hashPassword func(string) (string, error)
}

// NewMemberUseCase 建立一個新的 MemberUseCase
func NewMemberUseCase(memberRepo repository.MemberRepository,
	sessionTTL time.Duration,
	redisRepo database.RedisRepository[domain.MemberSession],
	hashPassword func(string) (string, error),
) MemberUseCase {
	return &memberUseCase{
		memberRepo:   memberRepo,
		sessionTTL:   sessionTTL,
		redisRepo:    redisRepo,
		hashPassword: hashPassword,
	}
}

// Register 建立新會員，role 僅接受 customer 或 admin
func (m *memberUseCase) Register(ctx context.Context, email, password, role string) error {
	// 檢查 email 是否已存在
	if _, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email}); err == nil {
		return errors.New("email already exists")
	}

	if role == "" {
		role = string(token.RoleCustomer)
	}
	if role != string(token.RoleCustomer) && role != string(token.RoleAdmin) {
		return fmt.Errorf("unknown role: %s", role)
	}

	pw, err := m.hashPassword(password)
	if err != nil {
		logger.Log.Errorf("password err :", err)
		return err
	}

	// 建立新使用者
	user := domain.Member{
		MemberID: uuid.New().String(),
		Email:    email,
		Password: pw,
		Role:     role,
	}

	logger.Log.Info(fmt.Sprintf("usecase Register : %v", user.Email))

	if err := m.memberRepo.CreateUser(ctx, &user); err != nil {
		return err
	}

	return nil
}

// FindMember 用查詢條件尋找使用者
func (m *memberUseCase) FindMember(ctx context.Context, param *domain.MemberQuery) (*domain.Member, error) {
	return m.memberRepo.FindByMember(ctx, param)
}

// ListMembers admin 檢視全部會員
func (m *memberUseCase) ListMembers(ctx context.Context) ([]domain.Member, error) {
	return m.memberRepo.ListMembers(ctx)
}

// UpdateRole 變更會員角色，role 僅接受 customer 或 admin。
// 舊 session 的 claims 還帶著原本的角色，改完直接清掉，重新登入才拿新角色
func (m *memberUseCase) UpdateRole(ctx context.Context, memberID, role string) error {
	if role != string(token.RoleCustomer) && role != string(token.RoleAdmin) {
		return fmt.Errorf("unknown role: %s", role)
	}

	if err := m.memberRepo.UpdateMemberRole(ctx, memberID, role); err != nil {
		return err
	}

	if err := m.redisRepo.Del(ctx, memberID); err != nil {
		logger.Log.Error("clear session after role change err :", zap.String("err", err.Error()))
	}
	return nil
}

// Login 驗證密碼並簽發 JWT，session 存 Redis
func (m *memberUseCase) Login(ctx context.Context, email, password string, now time.Time) (string, error) {
	// 取得使用者
	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email})
	if err != nil {
		logger.Log.Error("email can't find!!!")
		return "", err
	}

	if err = member.IsPasswordMatch(password); err != nil {
		logger.Log.Error("password can't match!!!")
		return "", err
	}

	member.Status = domain.MemberStatusOnLine

	t, err := token.GenerateJWTFunc(member.MemberID, member.Email, member.Role, config.EnvConfig.MemberService)
	if err != nil {
		logger.Log.Error("GenerateJWT err :", zap.String("err", err.Error()))
		return "", err
	}

	session := domain.MemberSession{
		Token:        t,
		MemberID:     member.MemberID,
		Email:        member.Email,
		Role:         member.Role,
		CreatedAt:    now,
		LastActivity: now,
		ExpiredAt:    now.Add(m.sessionTTL),
	}

	if err := m.redisRepo.Set(ctx, member.MemberID, session, m.sessionTTL); err != nil {
		return "", err
	}

	if err := m.memberRepo.UpdateMemberStatus(ctx, member); err != nil {
		return "", err
	}

	return t, nil
}

// Logout 清除 session 並將狀態改為離線
func (m *memberUseCase) Logout(ctx context.Context, t string) error {
	tokenInfo, err := token.ParseJWTFunc(t)
	if err != nil {
		logger.Log.Error("Logout err :", zap.String("err", err.Error()))
		return err
	}
	logger.Log.Debug("logout", zap.String("member token info", fmt.Sprintf("%v", tokenInfo.MemberID)))

	if err := m.redisRepo.Del(ctx, tokenInfo.MemberID); err != nil {
		return err
	}

	if err := m.memberRepo.UpdateMemberStatus(ctx, &domain.Member{
		MemberID: tokenInfo.MemberID,
		Status:   domain.MemberStatusOffLine,
	}); err != nil {
		return err
	}
	return nil
}

// ForceLogout 直接把該 memberID 下所有 session 都清除
func (m *memberUseCase) ForceLogout(ctx context.Context, memberID string) error {
	if err := m.redisRepo.Del(ctx, memberID); err != nil {
		return err
	}

	if err := m.memberRepo.UpdateMemberStatus(ctx, &domain.Member{
		MemberID: memberID,
		Status:   domain.MemberStatusOffLine,
	}); err != nil {
		return err
	}
	return nil
}

// CheckSessionTimeout 檢查 session 是否逾時
func (m *memberUseCase) CheckSessionTimeout(ctx context.Context, t string) (bool, error) {
	tokenInfo, err := token.ParseJWTFunc(t)
	if err != nil {
		logger.Log.Error("CheckSessionTimeout err :", zap.String("err", err.Error()))
		return true, err
	}

	ttl, err := m.redisRepo.GetTTL(ctx, tokenInfo.MemberID)
	if err != nil {
		return true, err
	}

	if ttl > 0 {
		return false, nil
	}
	return true, nil
}

// ReconnectSession 重新連線時延長 session 存活時間
func (m *memberUseCase) ReconnectSession(ctx context.Context, t string) error {
	tokenInfo, err := token.ParseJWTFunc(t)
	if err != nil {
		logger.Log.Error("ReconnectSession err :", zap.String("err", err.Error()))
		return err
	}

	if err := m.redisRepo.ExtendTTL(ctx, tokenInfo.MemberID, m.sessionTTL); err != nil {
		return err
	}

	return nil
}
