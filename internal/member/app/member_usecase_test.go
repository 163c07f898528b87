package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"storefront_support_service/internal/member/domain"
	"storefront_support_service/pkg/encrypt"
	"storefront_support_service/pkg/logger"
	token "storefront_support_service/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockMemberRepo Mock MemberRepo
type MockMemberRepo struct {
	mock.Mock
}

func (m *MockMemberRepo) CreateUser(ctx context.Context, user *domain.Member) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockMemberRepo) UpdateMemberStatus(ctx context.Context, user *domain.Member) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockMemberRepo) UpdateMemberRole(ctx context.Context, memberID, role string) error {
	args := m.Called(ctx, memberID, role)
	return args.Error(0)
}
func (m *MockMemberRepo) FindByMember(ctx context.Context, memberQuery *domain.MemberQuery) (*domain.Member, error) {
	args := m.Called(ctx, memberQuery)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockMemberRepo) ListMembers(ctx context.Context) ([]domain.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRedisRepo 針對 MemberSession 的 Mock
type MockRedisRepo struct {
	mock.Mock
}

// Set 模擬 Redis Set 操作
func (m *MockRedisRepo) Set(ctx context.Context, key string, value domain.MemberSession, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Get 模擬 Redis Get 操作
func (m *MockRedisRepo) Get(ctx context.Context, key string) (domain.MemberSession, error) {
	args := m.Called(ctx, key)
	if args.Get(0) != nil {
		return args.Get(0).(domain.MemberSession), args.Error(1)
	}
	return domain.MemberSession{}, args.Error(1)
}

// Del 模擬 Redis Del 操作
func (m *MockRedisRepo) Del(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// ExtendTTL 模擬 Redis ExtendTTL 操作
func (m *MockRedisRepo) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	args := m.Called(ctx, key, ttl)
	return args.Error(0)
}

// GetTTL 模擬 Redis GetTTL 操作
func (m *MockRedisRepo) GetTTL(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

func TestMemberUseCase_Register(t *testing.T) {
	ctx := context.Background()
	email := "test@example.com"
	password := "!!Securepassword111"

	mockRepo := new(MockMemberRepo)
	mockRedis := new(MockRedisRepo)

	logger.SetNewNop()

	// **情境 1: 註冊成功**
	t.Run("成功註冊", func(t *testing.T) {
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).Return(nil, errors.New("not found")).Once()
		mockRepo.On("CreateUser", ctx, mock.MatchedBy(func(m *domain.Member) bool {
			return m.Role == string(token.RoleCustomer)
		})).Return(nil).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		err := uc.Register(ctx, email, password, "")

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	// **情境 2: Email 已存在**
	t.Run("Email 已存在", func(t *testing.T) {
		existingUser := &domain.Member{
			ID:       1,
			MemberID: "AAA",
			Email:    email,
			Password: password,
			Role:     string(token.RoleCustomer),
			Status:   domain.MemberStatusOffLine,
		}

		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(existingUser, nil).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		err := uc.Register(ctx, email, password, "")

		assert.Error(t, err)
		assert.Equal(t, "email already exists", err.Error())
		mockRepo.AssertExpectations(t)
	})

	// **情境 3: 不認識的角色**
	t.Run("不認識的角色", func(t *testing.T) {
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).Return(nil, errors.New("not found")).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		err := uc.Register(ctx, email, password, "superuser")

		assert.Error(t, err)
		assert.Equal(t, "unknown role: superuser", err.Error())
		mockRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	// **情境 4: 密碼加密失敗**
	t.Run("密碼加密失敗", func(t *testing.T) {
		mockHashPassword := func(password string) (string, error) {
			return "", errors.New("hash password error")
		}

		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).Return(nil, errors.New("not found")).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, mockHashPassword)
		err := uc.Register(ctx, email, password, "")

		assert.Error(t, err)
		assert.Equal(t, "hash password error", err.Error())
		mockRepo.AssertExpectations(t)
	})

	// **情境 5: 建立用戶失敗**
	t.Run("建立用戶失敗", func(t *testing.T) {
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).Return(nil, errors.New("not found")).Once()
		mockRepo.On("CreateUser", ctx, mock.Anything).Return(errors.New("db error")).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		err := uc.Register(ctx, email, password, "")

		assert.Error(t, err)
		assert.Equal(t, "db error", err.Error())
		mockRepo.AssertExpectations(t)
	})
}

func TestMemberUseCase_FindMember(t *testing.T) {
	ctx := context.Background()
	email := "test@example.com"

	mockRepo := new(MockMemberRepo)
	mockRedis := new(MockRedisRepo)

	logger.SetNewNop()

	// **情境 1: 找到會員**
	t.Run("找到會員", func(t *testing.T) {
		existingUser := &domain.Member{
			ID:       1,
			MemberID: "AAA",
			Email:    email,
			Role:     string(token.RoleCustomer),
			Status:   domain.MemberStatusOffLine,
		}

		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).Return(existingUser, nil).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		member, err := uc.FindMember(ctx, &domain.MemberQuery{Email: &email})

		assert.NoError(t, err)
		assert.Equal(t, member, existingUser)
		mockRepo.AssertExpectations(t)
	})

	// **情境 2: 找不到會員**
	t.Run("找不到會員", func(t *testing.T) {
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).Return(nil, errors.New("no member found with given criteria")).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		_, err := uc.FindMember(ctx, &domain.MemberQuery{Email: &email})

		assert.Error(t, err)
		assert.Equal(t, "no member found with given criteria", err.Error())

		mockRepo.AssertExpectations(t)
	})
}

func TestMemberUseCase_ListMembers(t *testing.T) {
	ctx := context.Background()

	mockRepo := new(MockMemberRepo)
	mockRedis := new(MockRedisRepo)
	logger.SetNewNop()

	// **情境 1: 列出全部會員**
	t.Run("列出全部會員", func(t *testing.T) {
		members := []domain.Member{
			{ID: 1, MemberID: "AAA", Email: "a@example.com", Role: string(token.RoleCustomer)},
			{ID: 2, MemberID: "BBB", Email: "b@example.com", Role: string(token.RoleAdmin)},
		}
		mockRepo.On("ListMembers", ctx).Return(members, nil).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		got, err := uc.ListMembers(ctx)

		assert.NoError(t, err)
		assert.Len(t, got, 2)
		mockRepo.AssertExpectations(t)
	})

	// **情境 2: 查詢失敗**
	t.Run("查詢失敗", func(t *testing.T) {
		mockRepo.On("ListMembers", ctx).Return(nil, errors.New("db error")).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		_, err := uc.ListMembers(ctx)

		assert.Error(t, err)
	})
}

func TestMemberUseCase_UpdateRole(t *testing.T) {
	ctx := context.Background()
	memberID := "AAA"

	mockRepo := new(MockMemberRepo)
	mockRedis := new(MockRedisRepo)
	logger.SetNewNop()

	// **情境 1: 變更角色成功，舊 session 被清掉**
	t.Run("變更角色成功", func(t *testing.T) {
		mockRepo.On("UpdateMemberRole", ctx, memberID, string(token.RoleAdmin)).Return(nil).Once()
		mockRedis.On("Del", ctx, memberID).Return(nil).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		err := uc.UpdateRole(ctx, memberID, string(token.RoleAdmin))

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
		mockRedis.AssertExpectations(t)
	})

	// **情境 2: 不認識的角色**
	t.Run("不認識的角色", func(t *testing.T) {
		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		err := uc.UpdateRole(ctx, memberID, "superuser")

		assert.Error(t, err)
		assert.Equal(t, "unknown role: superuser", err.Error())
		mockRepo.AssertNotCalled(t, "UpdateMemberRole", ctx, memberID, "superuser")
	})

	// **情境 3: 會員不存在**
	t.Run("會員不存在", func(t *testing.T) {
		mockRepo.On("UpdateMemberRole", ctx, "ZZZ", string(token.RoleCustomer)).
			Return(errors.New("no member found with given criteria")).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		err := uc.UpdateRole(ctx, "ZZZ", string(token.RoleCustomer))

		assert.Error(t, err)
	})
}

func TestMemberUseCase_Login(t *testing.T) {
	ctx := context.Background()
	email := "test@example.com"
	password := "!!Securepassword111"
	hashedPassword, _ := encrypt.HashPassword(password)

	logger.SetNewNop()

	// **情境 1: 成功登入**
	t.Run("成功登入", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRedis := new(MockRedisRepo)

		existingUser := &domain.Member{
			MemberID: "AAA",
			Email:    email,
			Password: hashedPassword,
			Role:     string(token.RoleCustomer),
			Status:   domain.MemberStatusOffLine,
		}

		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(existingUser, nil).Once()

		mockRedis.On("Set", ctx, existingUser.MemberID, mock.Anything, mock.Anything).
			Return(nil).Once()

		mockRepo.On("UpdateMemberStatus", ctx, existingUser).
			Return(nil).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		tok, err := uc.Login(ctx, email, password, time.Now())

		assert.NoError(t, err)
		assert.NotEmpty(t, tok)
		mockRepo.AssertExpectations(t)
		mockRedis.AssertExpectations(t)
	})

	// **情境 2: 使用者不存在**
	t.Run("使用者不存在", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRedis := new(MockRedisRepo)

		errMsg := "no member found with given criteria"
		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(nil, errors.New(errMsg)).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		tok, err := uc.Login(ctx, email, password, time.Now())

		assert.Error(t, err)
		assert.Equal(t, errMsg, err.Error())
		assert.Empty(t, tok)
		mockRepo.AssertExpectations(t)
	})

	// **情境 3: 密碼錯誤**
	t.Run("密碼錯誤", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRedis := new(MockRedisRepo)

		existingUser := &domain.Member{
			MemberID: "AAA",
			Email:    email,
			Password: hashedPassword,
			Role:     string(token.RoleCustomer),
			Status:   domain.MemberStatusOffLine,
		}

		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(existingUser, nil).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		tok, err := uc.Login(ctx, email, "wrong_password", time.Now())

		assert.Error(t, err)
		assert.Equal(t, encrypt.ErrPasswordMismatch.Error(), err.Error())
		assert.Empty(t, tok)

		mockRepo.AssertExpectations(t)
	})

	// **情境 4: JWT 生成失敗**
	t.Run("JWT 生成失敗", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRedis := new(MockRedisRepo)

		existingUser := &domain.Member{
			MemberID: "AAA",
			Email:    email,
			Password: hashedPassword,
			Role:     string(token.RoleCustomer),
			Status:   domain.MemberStatusOffLine,
		}

		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(existingUser, nil).Once()

		// 備份原始的 GenerateJWTFunc，測試結束後恢復
		originalGenerateJWT := token.GenerateJWTFunc
		defer func() { token.GenerateJWTFunc = originalGenerateJWT }()

		errMsg := fmt.Sprintf("email[%s] can't GenerateJWT!!!", email)
		token.GenerateJWTFunc = func(memberID, email, role, issuer string) (string, error) {
			return "", errors.New(errMsg)
		}

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		tok, err := uc.Login(ctx, email, password, time.Now())

		assert.Error(t, err)
		assert.Equal(t, errMsg, err.Error())
		assert.Empty(t, tok)
	})

	// **情境 5: Redis 存 session 失敗**
	t.Run("Redis 存 session 失敗", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRedis := new(MockRedisRepo)

		existingUser := &domain.Member{
			MemberID: "AAA",
			Email:    email,
			Password: hashedPassword,
			Role:     string(token.RoleCustomer),
			Status:   domain.MemberStatusOffLine,
		}

		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(existingUser, nil).Once()

		// 備份原始的 GenerateJWTFunc，讓 session 內容可以預期
		originalGenerateJWT := token.GenerateJWTFunc
		defer func() { token.GenerateJWTFunc = originalGenerateJWT }()
		token.GenerateJWTFunc = func(memberID, email, role, issuer string) (string, error) {
			return "token", nil
		}

		now := time.Now()
		session := domain.MemberSession{
			Token:        "token",
			MemberID:     existingUser.MemberID,
			Email:        existingUser.Email,
			Role:         existingUser.Role,
			CreatedAt:    now,
			LastActivity: now,
			ExpiredAt:    now.Add(time.Hour),
		}

		errMsg := fmt.Sprintf("email[%s] can't save to redis !!!", email)
		mockRedis.On("Set", ctx, existingUser.MemberID, session, time.Hour).
			Return(errors.New(errMsg)).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		tok, err := uc.Login(ctx, email, password, now)

		assert.Error(t, err)
		assert.Equal(t, errMsg, err.Error())
		assert.Empty(t, tok)

		mockRedis.AssertExpectations(t)
	})

	// **情境 6: 更新使用者狀態失敗**
	t.Run("更新使用者狀態失敗", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRedis := new(MockRedisRepo)

		existingUser := &domain.Member{
			MemberID: "AAA",
			Email:    email,
			Password: hashedPassword,
			Role:     string(token.RoleCustomer),
			Status:   domain.MemberStatusOffLine,
		}

		mockRepo.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(existingUser, nil).Once()

		mockRedis.On("Set", ctx, existingUser.MemberID, mock.Anything, mock.Anything).
			Return(nil).Once()

		mockRepo.On("UpdateMemberStatus", ctx, existingUser).
			Return(errors.New("failed to update status")).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		tok, err := uc.Login(ctx, email, password, time.Now())

		assert.Error(t, err)
		assert.Equal(t, "failed to update status", err.Error())
		assert.Empty(t, tok)
		mockRepo.AssertExpectations(t)
		mockRedis.AssertExpectations(t)
	})
}

func TestMemberUseCase_Logout(t *testing.T) {
	ctx := context.Background()
	tokenStr := "mockToken"
	memberID := "AAA"

	mockRepo := new(MockMemberRepo)
	mockRedis := new(MockRedisRepo)

	logger.SetNewNop()

	// **情境 1: 解析 Token 失敗**
	t.Run("解析 Token 失敗", func(t *testing.T) {
		originalParseJWTFunc := token.ParseJWTFunc
		defer func() { token.ParseJWTFunc = originalParseJWTFunc }()

		token.ParseJWTFunc = func(t string) (*token.Claims, error) {
			return nil, errors.New("invalid token")
		}

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		err := uc.Logout(ctx, tokenStr)

		assert.Error(t, err)
		assert.Equal(t, "invalid token", err.Error())
	})

	// **情境 2: Redis 刪除 session 失敗**
	t.Run("Redis 刪除 session 失敗", func(t *testing.T) {
		originalParseJWTFunc := token.ParseJWTFunc
		defer func() { token.ParseJWTFunc = originalParseJWTFunc }()

		token.ParseJWTFunc = func(t string) (*token.Claims, error) {
			return &token.Claims{MemberID: memberID}, nil
		}

		mockRedis.On("Del", ctx, memberID).Return(errors.New("redis error")).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		err := uc.Logout(ctx, tokenStr)

		assert.Error(t, err)
		assert.Equal(t, "redis error", err.Error())

		mockRedis.AssertExpectations(t)
	})

	// **情境 3: 更新使用者狀態失敗**
	t.Run("更新使用者狀態失敗", func(t *testing.T) {
		originalParseJWTFunc := token.ParseJWTFunc
		defer func() { token.ParseJWTFunc = originalParseJWTFunc }()

		token.ParseJWTFunc = func(t string) (*token.Claims, error) {
			return &token.Claims{MemberID: memberID}, nil
		}

		mockRedis.On("Del", ctx, memberID).Return(nil).Once()

		mockRepo.On("UpdateMemberStatus", ctx, &domain.Member{
			MemberID: memberID,
			Status:   domain.MemberStatusOffLine,
		}).Return(errors.New("db error")).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		err := uc.Logout(ctx, tokenStr)

		assert.Error(t, err)
		assert.Equal(t, "db error", err.Error())

		mockRedis.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})

	// **情境 4: 成功登出**
	t.Run("成功登出", func(t *testing.T) {
		originalParseJWTFunc := token.ParseJWTFunc
		defer func() { token.ParseJWTFunc = originalParseJWTFunc }()

		token.ParseJWTFunc = func(t string) (*token.Claims, error) {
			return &token.Claims{MemberID: memberID}, nil
		}

		mockRedis.On("Del", ctx, memberID).Return(nil).Once()

		mockRepo.On("UpdateMemberStatus", ctx, &domain.Member{
			MemberID: memberID,
			Status:   domain.MemberStatusOffLine,
		}).Return(nil).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		err := uc.Logout(ctx, tokenStr)

		assert.NoError(t, err)

		mockRedis.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})
}

func TestMemberUseCase_ForceLogout(t *testing.T) {
	ctx := context.Background()
	memberID := "AAA"

	mockRepo := new(MockMemberRepo)
	mockRedis := new(MockRedisRepo)

	logger.SetNewNop()

	// **情境 1: Redis 刪除 session 失敗**
	t.Run("Redis 刪除 session 失敗", func(t *testing.T) {
		mockRedis.On("Del", ctx, memberID).
			Return(errors.New("redis error")).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		err := uc.ForceLogout(ctx, memberID)

		assert.Error(t, err)
		assert.Equal(t, "redis error", err.Error())

		mockRedis.AssertExpectations(t)
	})

	// **情境 2: 成功登出**
	t.Run("成功登出", func(t *testing.T) {
		mockRedis.On("Del", ctx, memberID).
			Return(nil).Once()

		mockRepo.On("UpdateMemberStatus", ctx, &domain.Member{
			MemberID: memberID,
			Status:   domain.MemberStatusOffLine,
		}).Return(nil).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		err := uc.ForceLogout(ctx, memberID)

		assert.NoError(t, err)

		mockRedis.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})
}

func TestMemberUseCase_CheckSessionTimeout(t *testing.T) {
	ctx := context.Background()
	tokenStr := "mockToken"
	memberID := "AAA"

	mockRepo := new(MockMemberRepo)
	mockRedis := new(MockRedisRepo)

	logger.SetNewNop()

	// **情境 1: 解析 Token 失敗**
	t.Run("解析 Token 失敗", func(t *testing.T) {
		originalParseJWTFunc := token.ParseJWTFunc
		defer func() { token.ParseJWTFunc = originalParseJWTFunc }()

		token.ParseJWTFunc = func(t string) (*token.Claims, error) {
			return nil, errors.New("invalid token")
		}

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		timedOut, err := uc.CheckSessionTimeout(ctx, tokenStr)

		assert.Error(t, err)
		assert.Equal(t, "invalid token", err.Error())
		assert.True(t, timedOut)
	})

	// **情境 2: Session 尚未過期**
	t.Run("Session 尚未過期", func(t *testing.T) {
		originalParseJWTFunc := token.ParseJWTFunc
		defer func() { token.ParseJWTFunc = originalParseJWTFunc }()

		token.ParseJWTFunc = func(t string) (*token.Claims, error) {
			return &token.Claims{MemberID: memberID}, nil
		}

		mockRedis.On("GetTTL", ctx, memberID).Return(60, nil).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		timedOut, err := uc.CheckSessionTimeout(ctx, tokenStr)

		assert.NoError(t, err)
		assert.False(t, timedOut)

		mockRedis.AssertExpectations(t)
	})

	// **情境 3: Session 已過期**
	t.Run("Session 已過期", func(t *testing.T) {
		originalParseJWTFunc := token.ParseJWTFunc
		defer func() { token.ParseJWTFunc = originalParseJWTFunc }()

		token.ParseJWTFunc = func(t string) (*token.Claims, error) {
			return &token.Claims{MemberID: memberID}, nil
		}

		mockRedis.On("GetTTL", ctx, memberID).Return(0, nil).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		timedOut, err := uc.CheckSessionTimeout(ctx, tokenStr)

		assert.NoError(t, err)
		assert.True(t, timedOut)

		mockRedis.AssertExpectations(t)
	})
}

func TestMemberUseCase_ReconnectSession(t *testing.T) {
	ctx := context.Background()
	tokenStr := "mockToken"
	memberID := "AAA"

	mockRepo := new(MockMemberRepo)
	mockRedis := new(MockRedisRepo)

	logger.SetNewNop()

	// **情境 1: Redis 延長 TTL 失敗**
	t.Run("Redis 延長 TTL 失敗", func(t *testing.T) {
		originalParseJWTFunc := token.ParseJWTFunc
		defer func() { token.ParseJWTFunc = originalParseJWTFunc }()

		token.ParseJWTFunc = func(t string) (*token.Claims, error) {
			return &token.Claims{MemberID: memberID}, nil
		}

		mockRedis.On("ExtendTTL", ctx, memberID, time.Hour).Return(errors.New("redis error")).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		err := uc.ReconnectSession(ctx, tokenStr)

		assert.Error(t, err)
		assert.Equal(t, "redis error", err.Error())

		mockRedis.AssertExpectations(t)
	})

	// **情境 2: 成功延長 Session**
	t.Run("成功延長 Session", func(t *testing.T) {
		originalParseJWTFunc := token.ParseJWTFunc
		defer func() { token.ParseJWTFunc = originalParseJWTFunc }()

		token.ParseJWTFunc = func(t string) (*token.Claims, error) {
			return &token.Claims{MemberID: memberID}, nil
		}

		mockRedis.On("ExtendTTL", ctx, memberID, time.Hour).Return(nil).Once()

		uc := NewMemberUseCase(mockRepo, time.Hour, mockRedis, encrypt.HashPassword)
		err := uc.ReconnectSession(ctx, tokenStr)

		assert.NoError(t, err)

		mockRedis.AssertExpectations(t)
	})
}
