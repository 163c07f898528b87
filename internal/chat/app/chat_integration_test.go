package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"storefront_support_service/internal/chat/domain"
	"storefront_support_service/internal/chat/repository"
	"storefront_support_service/pkg/database"
	"storefront_support_service/pkg/logger"
	"storefront_support_service/pkg/middlewares"
	testtool "storefront_support_service/pkg/test_tool"
	"storefront_support_service/pkg/token"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// **測試用的容器**
var mongoContainer testcontainers.Container
var redisContainer testcontainers.Container
var minioContainer testcontainers.Container
var chatApp *fiber.App
var chatHandler *ChatWebsocketHandler

var (
	minioUser     = "minioadmin"
	minioPassword = "minioadmin"
	minioBucket   = "chat-bucket"
)

// **TestMain 初始化測試環境**
func TestMain(m *testing.M) {
	ctx := context.Background()
	logger.SetNewNop()
	var err error

	// **啟動 MongoDB**
	mongoContainer, mongoHost, mongoPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mongo:latest",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start MongoDB container: %v", err)
	}
	fmt.Printf("✅ MongoDB running at %s:%s\n", mongoHost, mongoPort)

	// **啟動 Redis**
	redisContainer, redisHost, redisPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:latest",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start Redis container: %v", err)
	}
	fmt.Printf("✅ Redis running at %s:%s\n", redisHost, redisPort)

	// **啟動 MinIO**
	minioContainer, minioHost, minioPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image: "minio/minio:latest",
		Cmd:   []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     minioUser,
			"MINIO_ROOT_PASSWORD": minioPassword,
		},
		ExposedPorts: []string{"9000/tcp"},
		WaitingFor:   wait.ForListeningPort("9000/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start MinIO: %v", err)
	}
	fmt.Printf("✅ MinIO running at %s:%s\n", minioHost, minioPort)

	// **初始化 MongoDB**
	mongo, err := database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    fmt.Sprintf("mongodb://%s:%s", mongoHost, mongoPort),
		RetryCount:    5,
		RetryInterval: 5,
	}, "test_support_chat_db")
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer mongo.Close(ctx)

	// **初始化 Redis**
	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort),
		DB:   0,
	})

	// **初始化 MinIO**
	minioClient, err := database.NewMinioClient(
		fmt.Sprintf("%s:%s", minioHost, minioPort),
		minioUser, minioPassword, minioBucket, false)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MinIO: %v", err)
	}

	// **初始化 Repository**
	convRepo := repository.NewMongoConversationRepository(mongo.Database)
	msgRepo := repository.NewMongoMessageRepository(mongo.Database)
	uploader := repository.NewMinIOAttachmentRepository(minioClient)
	pub := repository.NewRedisPubSub(redisClient)

	// **初始化 Fiber WebSocket Server**
	chatHandler = NewChatWebsocketHandler(convRepo, msgRepo, uploader, pub)

	chatApp = fiber.New()
	chatApp.Use(middlewares.JWTMiddleware())
	chatApp.Get("/ws", websocket.New(func(c *websocket.Conn) {
		chatHandler.HandleConnection(context.Background(), c)
	}))

	// **啟動 WebSocket Server**
	go func() {
		err := chatApp.Listen(":8081")
		if err != nil {
			log.Fatalf("❌ Failed to start WebSocket server: %v", err)
		}
	}()
	fmt.Println("✅ WebSocket Server started at ws://localhost:8081/ws")

	// **等待 WebSocket Server 啟動**
	time.Sleep(5 * time.Second)

	// **執行測試**
	code := m.Run()

	// **清理測試環境**
	_ = mongoContainer.Terminate(ctx)
	_ = redisContainer.Terminate(ctx)
	_ = minioContainer.Terminate(ctx)
	chatApp.Shutdown()

	os.Exit(code)
}

// dialAs 以指定身份建立 WebSocket 連線，token 走 query string
func dialAs(t *testing.T, id domain.Identity) *gws.Conn {
	role := string(token.RoleCustomer)
	if id.IsAdmin {
		role = string(token.RoleAdmin)
	}
	jwt, err := token.GenerateJWT(id.ID, id.Email, role, "chat_integration_test")
	assert.NoError(t, err, "產生 token 失敗")

	wsURL := fmt.Sprintf("ws://127.0.0.1:8081/ws?auth=%s", jwt)
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	assert.NoError(t, err, "WebSocket 連線失敗")
	return conn
}

// readUntilAction 讀 frame 直到遇到指定 action，徽章等推播會穿插進來
func readUntilAction(t *testing.T, conn *gws.Conn, action domain.Action) domain.WSResponse {
	deadline := time.Now().Add(10 * time.Second)
	_ = conn.SetReadDeadline(deadline)

	for time.Now().Before(deadline) {
		_, payload, err := conn.ReadMessage()
		assert.NoError(t, err, "接收訊息失敗")

		var resp domain.WSResponse
		assert.NoError(t, json.Unmarshal(payload, &resp))
		if resp.Action == string(action) {
			return resp
		}
	}
	t.Fatalf("等不到 %s frame", action)
	return domain.WSResponse{}
}

func sendRequest(t *testing.T, conn *gws.Conn, req domain.WSRequest) {
	payload, err := json.Marshal(req)
	assert.NoError(t, err)
	assert.NoError(t, conn.WriteMessage(gws.TextMessage, payload), "發送請求失敗")
}

// ✅ 1️⃣ 顧客第一次開聊建立對話
func TestCustomerOpenChatCreatesConversation(t *testing.T) {
	customer := domain.Identity{ID: uuid.New().String(), Email: "buyer1@test.com"}
	conn := dialAs(t, customer)
	defer conn.Close()

	sendRequest(t, conn, domain.WSRequest{Action: string(domain.OpenChat)})

	resp := readUntilAction(t, conn, domain.OpenChat)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Payload["conversation_id"])

	// 空對話也會推一次初始 snapshot
	feed := readUntilAction(t, conn, domain.NotifyMessages)
	assert.True(t, feed.Success)
}

// ✅ 2️⃣ 重複開聊回到同一個對話
func TestCustomerOpenChatIsIdempotent(t *testing.T) {
	customer := domain.Identity{ID: uuid.New().String(), Email: "buyer2@test.com"}

	conn := dialAs(t, customer)
	sendRequest(t, conn, domain.WSRequest{Action: string(domain.OpenChat)})
	first := readUntilAction(t, conn, domain.OpenChat)
	conn.Close()

	conn2 := dialAs(t, customer)
	defer conn2.Close()
	sendRequest(t, conn2, domain.WSRequest{Action: string(domain.OpenChat)})
	second := readUntilAction(t, conn2, domain.OpenChat)

	assert.Equal(t, first.Payload["conversation_id"], second.Payload["conversation_id"])
}

// ✅ 3️⃣ 送出訊息後 snapshot 推播帶回該訊息
func TestSendMessageRoundTrip(t *testing.T) {
	customer := domain.Identity{ID: uuid.New().String(), Email: "buyer3@test.com"}
	conn := dialAs(t, customer)
	defer conn.Close()

	sendRequest(t, conn, domain.WSRequest{Action: string(domain.OpenChat)})
	readUntilAction(t, conn, domain.OpenChat)
	readUntilAction(t, conn, domain.NotifyMessages)

	sendRequest(t, conn, domain.WSRequest{
		Action: string(domain.SendMessage),
		Text:   "my order has not arrived",
	})

	resp := readUntilAction(t, conn, domain.SendMessage)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Payload["message_id"])

	// 不做本地補寫，畫面內容等 store 重新推播
	feed := readUntilAction(t, conn, domain.NotifyMessages)
	raw, err := json.Marshal(feed.Payload["messages"])
	assert.NoError(t, err)
	assert.Contains(t, string(raw), "my order has not arrived")
}

// ✅ 4️⃣ 非圖片附件在任何上傳前被拒絕
func TestAttachNonImageRejected(t *testing.T) {
	customer := domain.Identity{ID: uuid.New().String(), Email: "buyer4@test.com"}
	conn := dialAs(t, customer)
	defer conn.Close()

	sendRequest(t, conn, domain.WSRequest{Action: string(domain.OpenChat)})
	readUntilAction(t, conn, domain.OpenChat)

	sendRequest(t, conn, domain.WSRequest{
		Action:      string(domain.AttachImage),
		FileName:    "notes.txt",
		ContentType: "text/plain",
		Data:        base64.StdEncoding.EncodeToString([]byte("not an image")),
	})

	resp := readUntilAction(t, conn, domain.AttachImage)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "only image files are allowed")
}

// ✅ 5️⃣ 圖片附件上傳後訊息帶 image_url
func TestAttachImageUpload(t *testing.T) {
	customer := domain.Identity{ID: uuid.New().String(), Email: "buyer5@test.com"}
	conn := dialAs(t, customer)
	defer conn.Close()

	sendRequest(t, conn, domain.WSRequest{Action: string(domain.OpenChat)})
	readUntilAction(t, conn, domain.OpenChat)
	readUntilAction(t, conn, domain.NotifyMessages)

	sendRequest(t, conn, domain.WSRequest{
		Action:      string(domain.AttachImage),
		FileName:    "receipt.png",
		ContentType: "image/png",
		Data:        base64.StdEncoding.EncodeToString([]byte{0x89, 0x50, 0x4E, 0x47}),
	})
	resp := readUntilAction(t, conn, domain.AttachImage)
	assert.True(t, resp.Success)

	sendRequest(t, conn, domain.WSRequest{Action: string(domain.SendMessage)})
	sent := readUntilAction(t, conn, domain.SendMessage)
	assert.True(t, sent.Success)

	feed := readUntilAction(t, conn, domain.NotifyMessages)
	raw, err := json.Marshal(feed.Payload["messages"])
	assert.NoError(t, err)
	assert.Contains(t, string(raw), "image_url")
}

// ✅ 6️⃣ admin 目錄列出顧客對話並可刪除
func TestAdminDirectoryAndDelete(t *testing.T) {
	customer := domain.Identity{ID: uuid.New().String(), Email: "buyer6@test.com"}
	admin := domain.Identity{ID: uuid.New().String(), Email: "admin@test.com", IsAdmin: true}

	// 顧客先留下一個對話
	custConn := dialAs(t, customer)
	sendRequest(t, custConn, domain.WSRequest{Action: string(domain.OpenChat)})
	opened := readUntilAction(t, custConn, domain.OpenChat)
	conversationID := opened.Payload["conversation_id"].(string)
	custConn.Close()

	adminConn := dialAs(t, admin)
	defer adminConn.Close()

	sendRequest(t, adminConn, domain.WSRequest{Action: string(domain.OpenChat)})
	readUntilAction(t, adminConn, domain.OpenChat)

	dir := readUntilAction(t, adminConn, domain.NotifyDirectory)
	raw, err := json.Marshal(dir.Payload["conversations"])
	assert.NoError(t, err)
	assert.Contains(t, string(raw), customer.Email)

	sendRequest(t, adminConn, domain.WSRequest{
		Action:         string(domain.SelectConversation),
		ConversationID: conversationID,
	})
	readUntilAction(t, adminConn, domain.SelectConversation)

	sendRequest(t, adminConn, domain.WSRequest{
		Action:         string(domain.DeleteConversation),
		ConversationID: conversationID,
	})
	deleted := readUntilAction(t, adminConn, domain.DeleteConversation)
	assert.True(t, deleted.Success)
}

// ✅ 7️⃣ admin 來回切換對話時顧客同時狂發訊息，
// directory/badge 推播跟 read loop 會同時碰連線，連線必須一直活著
func TestAdminSwitchWhileCustomersPush(t *testing.T) {
	customerA := domain.Identity{ID: uuid.New().String(), Email: "buyer8a@test.com"}
	customerB := domain.Identity{ID: uuid.New().String(), Email: "buyer8b@test.com"}
	admin := domain.Identity{ID: uuid.New().String(), Email: "admin2@test.com", IsAdmin: true}

	// 兩個顧客各留一個對話，連線保持開著持續發訊息
	connA := dialAs(t, customerA)
	defer connA.Close()
	sendRequest(t, connA, domain.WSRequest{Action: string(domain.OpenChat)})
	openedA := readUntilAction(t, connA, domain.OpenChat)
	convA := openedA.Payload["conversation_id"].(string)

	connB := dialAs(t, customerB)
	defer connB.Close()
	sendRequest(t, connB, domain.WSRequest{Action: string(domain.OpenChat)})
	openedB := readUntilAction(t, connB, domain.OpenChat)
	convB := openedB.Payload["conversation_id"].(string)

	adminConn := dialAs(t, admin)
	defer adminConn.Close()
	sendRequest(t, adminConn, domain.WSRequest{Action: string(domain.OpenChat)})
	readUntilAction(t, adminConn, domain.OpenChat)

	// 顧客端的發送 goroutine 只寫自己的連線
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			sendRequest(t, connA, domain.WSRequest{
				Action: string(domain.SendMessage),
				Text:   fmt.Sprintf("ping a-%d", i),
			})
			sendRequest(t, connB, domain.WSRequest{
				Action: string(domain.SendMessage),
				Text:   fmt.Sprintf("ping b-%d", i),
			})
			time.Sleep(50 * time.Millisecond)
		}
	}()

	// admin 同時在兩個對話之間來回切換
	for i := 0; i < 10; i++ {
		target := convA
		if i%2 == 1 {
			target = convB
		}
		sendRequest(t, adminConn, domain.WSRequest{
			Action:         string(domain.SelectConversation),
			ConversationID: target,
		})
		resp := readUntilAction(t, adminConn, domain.SelectConversation)
		assert.True(t, resp.Success)
	}
	<-done

	// 連線還能正常收發
	sendRequest(t, adminConn, domain.WSRequest{Action: string(domain.GetUnread)})
	unread := readUntilAction(t, adminConn, domain.GetUnread)
	assert.True(t, unread.Success)
}

// ✅ 8️⃣ 未讀總數查詢
func TestGetUnreadTotal(t *testing.T) {
	customer := domain.Identity{ID: uuid.New().String(), Email: "buyer7@test.com"}
	conn := dialAs(t, customer)
	defer conn.Close()

	sendRequest(t, conn, domain.WSRequest{Action: string(domain.GetUnread)})
	resp := readUntilAction(t, conn, domain.GetUnread)
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Payload["total"])
}
