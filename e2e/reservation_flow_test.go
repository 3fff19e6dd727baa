package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-court-reservation/internal/api"
	"github.com/sanosuguru/go-court-reservation/internal/api/handler"
	"github.com/sanosuguru/go-court-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-court-reservation/internal/application"
	"github.com/sanosuguru/go-court-reservation/internal/domain/pricing"
	"github.com/sanosuguru/go-court-reservation/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-court-reservation/internal/infrastructure/redis"
)

// TestServer はE2Eテスト用のサーバー
type TestServer struct {
	Echo *echo.Echo
}

// NewTestServer はテスト用サーバーを作成
// 共有のDB・Redis接続を使い、テーブルをクリーンアップしてから返す
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	if testDB == nil {
		t.Skip("テスト環境が利用できません")
	}
	cleanupTables()

	lockManager := redisinfra.NewLockManager(redisClient)
	availabilityCache := redisinfra.NewAvailabilityCache(redisClient)

	courtRepo := postgres.NewCourtRepository(testDB)
	reservationRepo := postgres.NewReservationRepository(testDB)
	blockRepo := postgres.NewScheduleBlockRepository(testDB)
	txManager := postgres.NewTxManager(testDB)

	checker := application.NewConflictChecker(reservationRepo, blockRepo)
	calc := pricing.NewCalculator(pricing.DefaultConfig())

	courtService := application.NewCourtService(courtRepo)
	availabilityService := application.NewAvailabilityService(courtRepo, checker, calc, availabilityCache, 5*time.Second)
	reservationService := application.NewReservationService(
		txManager, reservationRepo, courtRepo, checker, calc,
		lockManager, availabilityCache, nil, nil,
	)
	scheduleService := application.NewScheduleService(blockRepo, reservationRepo, courtRepo, availabilityCache)

	courtHandler := handler.NewCourtHandler(courtService)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityService)
	reservationHandler := handler.NewReservationHandler(reservationService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	healthHandler := handler.NewHealthHandler(testDB)

	e := echo.New()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Validator = api.NewValidator()
	middleware.SetupMiddleware(e)

	e.GET("/health", healthHandler.Check)

	v1 := e.Group("/api/v1")
	v1.POST("/courts", courtHandler.Create)
	v1.GET("/courts", courtHandler.List)
	v1.GET("/courts/:id", courtHandler.GetByID)
	v1.GET("/courts/:id/availability", availabilityHandler.GetSlots)
	v1.GET("/courts/:id/availability/check", availabilityHandler.Check)

	v1.POST("/reservations", reservationHandler.Create)
	v1.GET("/reservations", reservationHandler.GetUserReservations)
	v1.GET("/reservations/:id", reservationHandler.GetByID)
	v1.POST("/reservations/:id/confirm", reservationHandler.ConfirmPayment)
	v1.POST("/reservations/:id/check-in", reservationHandler.CheckIn)
	v1.POST("/reservations/:id/check-out", reservationHandler.CheckOut)
	v1.POST("/reservations/:id/cancel", reservationHandler.Cancel)

	v1.POST("/schedule/blocks", scheduleHandler.CreateBlock)
	v1.GET("/schedule/blocks", scheduleHandler.ListBlocks)
	v1.DELETE("/schedule/blocks/:id", scheduleHandler.DeleteBlock)
	v1.POST("/schedule/special-rates", scheduleHandler.CreateSpecialRate)

	return &TestServer{Echo: e}
}

// Request はHTTPリクエストを実行
func (s *TestServer) Request(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func testDate() string {
	return time.Now().AddDate(0, 0, 3).Format("2006-01-02")
}

func createTestCourt(t *testing.T, server *TestServer) string {
	t.Helper()
	day := map[string]interface{}{"open": "06:00", "close": "22:00"}
	body := map[string]interface{}{
		"facility_id": "e2e-facility",
		"name":        "E2E Court 1",
		"operating_hours": map[string]interface{}{
			"monday": day, "tuesday": day, "wednesday": day,
			"thursday": day, "friday": day, "saturday": day, "sunday": day,
		},
		"base_rate":            350,
		"peak_rate":            450,
		"weekend_rate":         400,
		"min_duration_min":     60,
		"max_duration_min":     180,
		"advance_booking_days": 14,
		"cancel_deadline_hrs":  24,
	}

	rec := server.Request("POST", "/api/v1/courts", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	courtID := resp["id"].(string)
	require.NotEmpty(t, courtID)
	return courtID
}

// TestE2E_HealthCheck はヘルスチェックをテスト
func TestE2E_HealthCheck(t *testing.T) {
	server := NewTestServer(t)

	rec := server.Request("GET", "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp["status"])
}

// TestE2E_CompleteReservationJourney は完全な予約ジャーニーをテスト
func TestE2E_CompleteReservationJourney(t *testing.T) {
	server := NewTestServer(t)

	userID := "e2e-user-yamada"
	date := testDate()
	var courtID, reservationID string

	// 1. コート登録
	t.Run("コート登録", func(t *testing.T) {
		courtID = createTestCourt(t, server)
	})

	// 2. 空き枠一覧（全32スロットが空き）
	t.Run("空き枠一覧確認", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/courts/%s/availability?date=%s", courtID, date)
		rec := server.Request("GET", path, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		slots := resp["slots"].([]interface{})
		require.Len(t, slots, 32)
		first := slots[0].(map[string]interface{})
		assert.Equal(t, true, first["available"])
	})

	// 3. 予約作成
	t.Run("予約作成", func(t *testing.T) {
		body := map[string]interface{}{
			"court_id": courtID,
			"date":     date,
			"start":    "10:00",
			"end":      "11:30",
		}

		rec := server.Request("POST", "/api/v1/reservations", body, map[string]string{
			"X-User-ID": userID,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		reservationID = resp["id"].(string)
		assert.Equal(t, "pending", resp["status"])
		assert.Equal(t, float64(90), resp["duration_min"])

		price := resp["price"].(map[string]interface{})
		assert.Greater(t, price["total_amount"].(float64), 0.0)
	})

	// 4. 支払い確認
	t.Run("支払い確認", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/reservations/%s/confirm", reservationID)
		rec := server.Request("POST", path, map[string]interface{}{
			"payment_ref": "e2e-pay-001",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, "confirmed", resp["status"])
	})

	// 5. 該当スロットが埋まっていることを確認
	t.Run("スロット占有確認", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/courts/%s/availability/check?date=%s&start=10:30&end=11:30", courtID, date)
		rec := server.Request("GET", path, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, false, resp["available"])
		conflicts := resp["conflicts"].([]interface{})
		require.NotEmpty(t, conflicts)
	})

	// 6. ユーザーの予約一覧
	t.Run("予約一覧確認", func(t *testing.T) {
		rec := server.Request("GET", "/api/v1/reservations", nil, map[string]string{
			"X-User-ID": userID,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp []map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		require.Len(t, resp, 1)
		assert.Equal(t, reservationID, resp[0]["id"])
	})
}

// TestE2E_ReservationConflict は予約競合をテスト
func TestE2E_ReservationConflict(t *testing.T) {
	server := NewTestServer(t)

	courtID := createTestCourt(t, server)
	date := testDate()

	t.Run("ユーザーAが予約成功", func(t *testing.T) {
		body := map[string]interface{}{
			"court_id": courtID, "date": date,
			"start": "18:00", "end": "19:30",
		}
		rec := server.Request("POST", "/api/v1/reservations", body, map[string]string{
			"X-User-ID": "user-A",
		})
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("ユーザーBが重なる時間帯で失敗", func(t *testing.T) {
		body := map[string]interface{}{
			"court_id": courtID, "date": date,
			"start": "19:00", "end": "20:00",
		}
		rec := server.Request("POST", "/api/v1/reservations", body, map[string]string{
			"X-User-ID": "user-B",
		})
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		conflicts := resp["conflicts"].([]interface{})
		require.NotEmpty(t, conflicts)
		first := conflicts[0].(map[string]interface{})
		assert.Equal(t, "reservation", first["kind"])
	})

	t.Run("隣接する時間帯は予約できる", func(t *testing.T) {
		body := map[string]interface{}{
			"court_id": courtID, "date": date,
			"start": "19:30", "end": "20:30",
		}
		rec := server.Request("POST", "/api/v1/reservations", body, map[string]string{
			"X-User-ID": "user-B",
		})
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})
}

// TestE2E_CancelAndRebook はキャンセル後の再予約をテスト
func TestE2E_CancelAndRebook(t *testing.T) {
	server := NewTestServer(t)

	courtID := createTestCourt(t, server)
	date := testDate()
	var reservationID string
	var totalAmount float64

	// セットアップ: 予約して支払い確認まで
	body := map[string]interface{}{
		"court_id": courtID, "date": date,
		"start": "14:00", "end": "15:00",
	}
	rec := server.Request("POST", "/api/v1/reservations", body, map[string]string{
		"X-User-ID": "user-A",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var createResp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &createResp)
	reservationID = createResp["id"].(string)
	totalAmount = createResp["price"].(map[string]interface{})["total_amount"].(float64)

	rec = server.Request("POST", fmt.Sprintf("/api/v1/reservations/%s/confirm", reservationID),
		map[string]interface{}{"payment_ref": "e2e-pay-002"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("24時間以上前のキャンセルは全額返金", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/reservations/%s/cancel", reservationID)
		rec := server.Request("POST", path, map[string]interface{}{
			"reason": "plans changed",
		}, map[string]string{"X-User-ID": "user-A"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, "cancelled", resp["status"])
		cancellation := resp["cancellation"].(map[string]interface{})
		assert.Equal(t, totalAmount, cancellation["refund_amount"])
	})

	t.Run("キャンセル済みの時間帯は再予約できる", func(t *testing.T) {
		rec := server.Request("POST", "/api/v1/reservations", body, map[string]string{
			"X-User-ID": "user-B",
		})
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("キャンセル済み予約は再キャンセルできない", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/reservations/%s/cancel", reservationID)
		rec := server.Request("POST", path, map[string]interface{}{}, map[string]string{
			"X-User-ID": "user-A",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

// TestE2E_ScheduleBlock は利用不可枠の作成と予約への影響をテスト
func TestE2E_ScheduleBlock(t *testing.T) {
	server := NewTestServer(t)

	courtID := createTestCourt(t, server)
	date := testDate()

	t.Run("ブロック作成で該当スロットが埋まる", func(t *testing.T) {
		body := map[string]interface{}{
			"court_id": courtID, "date": date,
			"start": "09:00", "end": "12:00",
			"type": "maintenance", "reason": "resurfacing",
		}
		rec := server.Request("POST", "/api/v1/schedule/blocks", body, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		path := fmt.Sprintf("/api/v1/courts/%s/availability/check?date=%s&start=10:00&end=11:00", courtID, date)
		rec = server.Request("GET", path, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, false, resp["available"])
	})

	t.Run("ブロック中の時間帯は予約できない", func(t *testing.T) {
		body := map[string]interface{}{
			"court_id": courtID, "date": date,
			"start": "10:00", "end": "11:00",
		}
		rec := server.Request("POST", "/api/v1/reservations", body, map[string]string{
			"X-User-ID": "user-A",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("既存予約と重なるブロックは作成できない", func(t *testing.T) {
		resBody := map[string]interface{}{
			"court_id": courtID, "date": date,
			"start": "14:00", "end": "15:00",
		}
		rec := server.Request("POST", "/api/v1/reservations", resBody, map[string]string{
			"X-User-ID": "user-A",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		blockBody := map[string]interface{}{
			"court_id": courtID, "date": date,
			"start": "14:30", "end": "16:00",
			"type": "private_event",
		}
		rec = server.Request("POST", "/api/v1/schedule/blocks", blockBody, nil)
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		conflicts := resp["conflicts"].([]interface{})
		require.NotEmpty(t, conflicts)
	})

	t.Run("ブロック削除で時間帯が解放される", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/schedule/blocks?court_id=%s&date=%s", courtID, date)
		rec := server.Request("GET", path, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var blocks []map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &blocks)
		require.NotEmpty(t, blocks)
		blockID := blocks[0]["id"].(string)

		rec = server.Request("DELETE", "/api/v1/schedule/blocks/"+blockID, nil, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		checkPath := fmt.Sprintf("/api/v1/courts/%s/availability/check?date=%s&start=10:00&end=11:00", courtID, date)
		rec = server.Request("GET", checkPath, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, true, resp["available"])
	})
}

// TestE2E_SpecialRate は特別料金枠による料金上書きをテスト
func TestE2E_SpecialRate(t *testing.T) {
	server := NewTestServer(t)

	courtID := createTestCourt(t, server)
	date := testDate()

	body := map[string]interface{}{
		"court_id": courtID, "date": date,
		"start": "10:00", "end": "14:00",
		"rate": 200,
	}
	rec := server.Request("POST", "/api/v1/schedule/special-rates", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	t.Run("特別料金が標準料金に優先する", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/courts/%s/availability/check?date=%s&start=10:00&end=11:00", courtID, date)
		rec := server.Request("GET", path, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		require.Equal(t, true, resp["available"])

		// 200/時 x 1時間: 小計200 + 税32 + 手数料6 = 238
		price := resp["price"].(map[string]interface{})
		assert.Equal(t, float64(238), price["total_amount"])
		assert.Equal(t, float64(1), price["peak_multiplier"])
		assert.Equal(t, float64(1), price["weekend_multiplier"])
	})

	t.Run("特別料金枠でも予約は作成できる", func(t *testing.T) {
		resBody := map[string]interface{}{
			"court_id": courtID, "date": date,
			"start": "10:00", "end": "11:00",
		}
		rec := server.Request("POST", "/api/v1/reservations", resBody, map[string]string{
			"X-User-ID": "user-A",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		price := resp["price"].(map[string]interface{})
		assert.Equal(t, float64(238), price["total_amount"])
	})
}
