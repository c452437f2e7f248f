package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/devqna/backend/internal/database"
	"github.com/emilythestrangee/devqna/backend/internal/middleware"
	"github.com/emilythestrangee/devqna/backend/internal/models"
	"github.com/emilythestrangee/devqna/backend/internal/ws"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testAuth replaces the JWT middleware: the acting user comes from the
// X-User-ID header.
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader("X-User-ID"); raw != "" {
			if id, err := strconv.Atoi(raw); err == nil {
				c.Set("user_id", id)
			}
		}
		c.Next()
	}
}

func setupTest(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	handler := NewHandler(db, hub)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/register", handler.Auth.Register)
	api.POST("/login", handler.Auth.Login)
	api.GET("/questions", handler.Question.GetQuestions)
	api.GET("/questions/:id", handler.Question.GetQuestion)
	api.GET("/questions/:id/answers", handler.Answer.GetAnswers)
	api.GET("/questions/:id/comments", handler.Comment.GetQuestionComments)
	api.GET("/answers/:id/comments", handler.Comment.GetAnswerComments)
	api.GET("/ws", handler.WS.Subscribe)

	protected := api.Group("")
	protected.Use(testAuth())
	protected.POST("/questions", handler.Question.CreateQuestion)
	protected.PUT("/questions/:id", handler.Question.UpdateQuestion)
	protected.DELETE("/questions/:id", handler.Question.DeleteQuestion)
	protected.POST("/questions/:id/accept", handler.Question.AcceptAnswer)
	protected.POST("/questions/:id/vote", handler.Vote.VoteQuestion)
	protected.POST("/questions/:id/comments", handler.Comment.CommentQuestion)
	protected.POST("/questions/:id/answers", handler.Answer.CreateAnswer)
	protected.PUT("/answers/:id", handler.Answer.UpdateAnswer)
	protected.DELETE("/answers/:id", handler.Answer.DeleteAnswer)
	protected.POST("/answers/:id/vote", handler.Vote.VoteAnswer)
	protected.POST("/answers/:id/comments", handler.Comment.CommentAnswer)
	protected.GET("/notifications", handler.Notification.GetNotifications)
	protected.GET("/notifications/unread-count", handler.Notification.GetUnreadCount)
	protected.POST("/notifications/:id/read", handler.Notification.MarkRead)
	protected.POST("/notifications/read-all", handler.Notification.MarkAllRead)

	return db, router
}

func doJSON(router *gin.Engine, method, path string, userID int, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-User-ID", strconv.Itoa(userID))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", Password: "hashed"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func unreadCount(t *testing.T, router *gin.Engine, userID int) int {
	t.Helper()
	w := doJSON(router, http.MethodGet, "/api/notifications/unread-count", userID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unread-count returned %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		UnreadCount int `json:"unread_count"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.UnreadCount
}

func listNotifications(t *testing.T, router *gin.Engine, userID int) []models.Notification {
	t.Helper()
	w := doJSON(router, http.MethodGet, "/api/notifications", userID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("notifications returned %d: %s", w.Code, w.Body.String())
	}
	var notifs []models.Notification
	json.Unmarshal(w.Body.Bytes(), &notifs)
	return notifs
}

func TestRegisterAndLogin(t *testing.T) {
	_, router := setupTest(t)

	w := doJSON(router, http.MethodPost, "/api/register", 0, gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", w.Code, w.Body.String())
	}
	var reg struct {
		Token string `json:"token"`
	}
	json.Unmarshal(w.Body.Bytes(), &reg)
	if reg.Token == "" {
		t.Error("register should return a token")
	}

	// Duplicate username
	w = doJSON(router, http.MethodPost, "/api/register", 0, gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"password": "secret123",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("duplicate register returned %d, want 400", w.Code)
	}

	w = doJSON(router, http.MethodPost, "/api/login", 0, gin.H{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(router, http.MethodPost, "/api/login", 0, gin.H{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad login returned %d, want 401", w.Code)
	}
}

func TestAnswerCreatesNotificationForQuestionOwner(t *testing.T) {
	db, router := setupTest(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	w := doJSON(router, http.MethodPost, "/api/questions", alice.ID, gin.H{
		"title":       "How to sort a list?",
		"description": "In any language.",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create question returned %d: %s", w.Code, w.Body.String())
	}
	var question models.Question
	json.Unmarshal(w.Body.Bytes(), &question)

	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/questions/%d/answers", question.ID), bob.ID, gin.H{
		"content": "Use merge sort.",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create answer returned %d: %s", w.Code, w.Body.String())
	}

	notifs := listNotifications(t, router, alice.ID)
	if len(notifs) != 1 {
		t.Fatalf("alice should have 1 notification, got %d", len(notifs))
	}
	n := notifs[0]
	if n.Type != models.NotificationAnswer || n.Read {
		t.Errorf("unexpected notification %+v", n)
	}
	if !strings.Contains(n.Message, "How to sort a list?") {
		t.Errorf("message should interpolate the question title: %q", n.Message)
	}
	if got := unreadCount(t, router, alice.ID); got != 1 {
		t.Errorf("unread count = %d, want 1", got)
	}

	// Bob got nothing.
	if got := unreadCount(t, router, bob.ID); got != 0 {
		t.Errorf("bob's unread count = %d, want 0", got)
	}
}

func TestAcceptAnswerNotifiesAndIsIdempotent(t *testing.T) {
	db, router := setupTest(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	question := models.Question{Title: "How to sort a list?", UserID: alice.ID}
	db.Create(&question)
	answer := models.Answer{QuestionID: question.ID, UserID: bob.ID, Content: "Merge sort."}
	db.Create(&answer)

	// Only the question owner may accept.
	w := doJSON(router, http.MethodPost, fmt.Sprintf("/api/questions/%d/accept", question.ID), bob.ID, gin.H{"answer_id": answer.ID})
	if w.Code != http.StatusForbidden {
		t.Errorf("non-owner accept returned %d, want 403", w.Code)
	}

	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/questions/%d/accept", question.ID), alice.ID, gin.H{"answer_id": answer.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("accept returned %d: %s", w.Code, w.Body.String())
	}

	var reloaded models.Question
	db.First(&reloaded, question.ID)
	if reloaded.AcceptedAnswerID == nil || *reloaded.AcceptedAnswerID != answer.ID || !reloaded.IsAnswered {
		t.Errorf("question not marked answered: %+v", reloaded)
	}
	var acceptedAnswer models.Answer
	db.First(&acceptedAnswer, answer.ID)
	if !acceptedAnswer.IsAccepted {
		t.Error("answer should be flagged accepted")
	}

	if got := unreadCount(t, router, bob.ID); got != 1 {
		t.Errorf("bob's unread count = %d, want 1", got)
	}

	// Repeating the accept with the same answer creates no additional row.
	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/questions/%d/accept", question.ID), alice.ID, gin.H{"answer_id": answer.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("repeated accept returned %d", w.Code)
	}
	if got := unreadCount(t, router, bob.ID); got != 1 {
		t.Errorf("repeated accept must not notify again, unread = %d", got)
	}
}

func TestVoteToggleSwitchAndNotifications(t *testing.T) {
	db, router := setupTest(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	question := models.Question{Title: "How to sort a list?", UserID: alice.ID}
	db.Create(&question)
	answer := models.Answer{QuestionID: question.ID, UserID: bob.ID, Content: "Merge sort."}
	db.Create(&answer)

	votePath := fmt.Sprintf("/api/answers/%d/vote", answer.ID)

	// Downvote first: a vote row, no notification.
	w := doJSON(router, http.MethodPost, votePath, alice.ID, gin.H{"vote_type": -1})
	if w.Code != http.StatusOK {
		t.Fatalf("downvote returned %d: %s", w.Code, w.Body.String())
	}
	if got := unreadCount(t, router, bob.ID); got != 0 {
		t.Errorf("downvote must not notify, unread = %d", got)
	}

	// Flip to upvote: the row switches and bob is notified.
	w = doJSON(router, http.MethodPost, votePath, alice.ID, gin.H{"vote_type": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("flip returned %d: %s", w.Code, w.Body.String())
	}
	var votes []models.Vote
	db.Where("answer_id = ?", answer.ID).Find(&votes)
	if len(votes) != 1 || votes[0].VoteType != 1 {
		t.Fatalf("expected a single upvote row, got %+v", votes)
	}
	if got := unreadCount(t, router, bob.ID); got != 1 {
		t.Errorf("flip to upvote should notify, unread = %d", got)
	}

	// Same vote again toggles it off.
	w = doJSON(router, http.MethodPost, votePath, alice.ID, gin.H{"vote_type": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("toggle returned %d", w.Code)
	}
	var count int64
	db.Model(&models.Vote{}).Where("answer_id = ?", answer.ID).Count(&count)
	if count != 0 {
		t.Errorf("toggle should remove the vote, %d rows left", count)
	}

	// Bob upvoting his own answer records the vote but never notifies.
	doJSON(router, http.MethodPost, votePath, bob.ID, gin.H{"vote_type": 1})
	if got := unreadCount(t, router, bob.ID); got != 1 {
		t.Errorf("self-vote must not notify, unread = %d", got)
	}

	// Invalid vote_type is rejected.
	w = doJSON(router, http.MethodPost, votePath, alice.ID, gin.H{"vote_type": 5})
	if w.Code != http.StatusBadRequest {
		t.Errorf("vote_type 5 returned %d, want 400", w.Code)
	}
}

func TestCommentNotifications(t *testing.T) {
	db, router := setupTest(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	question := models.Question{Title: "How to sort a list?", UserID: alice.ID}
	db.Create(&question)
	answer := models.Answer{QuestionID: question.ID, UserID: bob.ID, Content: "Merge sort."}
	db.Create(&answer)

	// Bob comments on alice's question.
	w := doJSON(router, http.MethodPost, fmt.Sprintf("/api/questions/%d/comments", question.ID), bob.ID, gin.H{"content": "Which language?"})
	if w.Code != http.StatusCreated {
		t.Fatalf("comment question returned %d: %s", w.Code, w.Body.String())
	}
	notifs := listNotifications(t, router, alice.ID)
	if len(notifs) != 1 || notifs[0].Type != models.NotificationCommentQuestion {
		t.Fatalf("expected comment_question notification, got %+v", notifs)
	}

	// Alice comments on bob's answer.
	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/answers/%d/comments", answer.ID), alice.ID, gin.H{"content": "Stable sort?"})
	if w.Code != http.StatusCreated {
		t.Fatalf("comment answer returned %d: %s", w.Code, w.Body.String())
	}
	notifs = listNotifications(t, router, bob.ID)
	if len(notifs) != 1 || notifs[0].Type != models.NotificationCommentAnswer {
		t.Fatalf("expected comment_answer notification, got %+v", notifs)
	}

	// Commenting a missing question is a 404, no comment row.
	w = doJSON(router, http.MethodPost, "/api/questions/9999/comments", bob.ID, gin.H{"content": "hello?"})
	if w.Code != http.StatusNotFound {
		t.Errorf("comment on missing question returned %d, want 404", w.Code)
	}
}

func TestMarkReadEndpoints(t *testing.T) {
	db, router := setupTest(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	question := models.Question{Title: "How to sort a list?", UserID: alice.ID}
	db.Create(&question)
	for i := 0; i < 3; i++ {
		doJSON(router, http.MethodPost, fmt.Sprintf("/api/questions/%d/answers", question.ID), bob.ID, gin.H{"content": fmt.Sprintf("answer %d", i)})
	}
	notifs := listNotifications(t, router, alice.ID)
	if len(notifs) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(notifs))
	}

	// Bob cannot mark alice's notification.
	w := doJSON(router, http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", notifs[0].ID), bob.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign mark-read returned %d, want 404", w.Code)
	}

	// Marking twice succeeds both times.
	for i := 0; i < 2; i++ {
		w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", notifs[0].ID), alice.ID, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("mark-read attempt %d returned %d", i+1, w.Code)
		}
	}
	if got := unreadCount(t, router, alice.ID); got != 2 {
		t.Errorf("unread count = %d, want 2", got)
	}

	// Unknown id is a 404.
	w = doJSON(router, http.MethodPost, "/api/notifications/99999/read", alice.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown mark-read returned %d, want 404", w.Code)
	}

	w = doJSON(router, http.MethodPost, "/api/notifications/read-all", alice.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("read-all returned %d", w.Code)
	}
	if got := unreadCount(t, router, alice.ID); got != 0 {
		t.Errorf("unread count after read-all = %d, want 0", got)
	}
}

func TestWebsocketReceivesLivePush(t *testing.T) {
	db, router := setupTest(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	question := models.Question{Title: "How to sort a list?", UserID: alice.ID}
	db.Create(&question)

	srv := httptest.NewServer(router)
	defer srv.Close()

	token, err := middleware.GenerateToken(alice.ID)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws?token=" + token
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	// A connection without a token is rejected.
	noAuthURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	if _, resp, err := gorillaws.DefaultDialer.Dial(noAuthURL, nil); err == nil {
		t.Error("unauthenticated websocket dial should fail")
	} else if resp != nil && resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated dial returned %d, want 401", resp.StatusCode)
	}

	// The dial returns on the 101 response, slightly before the hub has
	// processed the registration. Give it a moment.
	time.Sleep(100 * time.Millisecond)

	// Bob answers; alice's live session should see the push.
	w := doJSON(router, http.MethodPost, fmt.Sprintf("/api/questions/%d/answers", question.ID), bob.ID, gin.H{"content": "Quick sort."})
	if w.Code != http.StatusCreated {
		t.Fatalf("create answer returned %d: %s", w.Code, w.Body.String())
	}

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("no push received: %v", err)
	}

	var env struct {
		Type         string              `json:"type"`
		Notification models.Notification `json:"notification"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("bad push payload: %v", err)
	}
	if env.Type != "notification" {
		t.Errorf("envelope type = %q, want notification", env.Type)
	}
	if env.Notification.UserID != alice.ID || env.Notification.Type != models.NotificationAnswer {
		t.Errorf("unexpected pushed notification %+v", env.Notification)
	}
}
