package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/printdesk-next/internal/config"
	"github.com/printdesk-next/internal/constants"
	"github.com/printdesk-next/internal/models"
	"github.com/printdesk-next/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const testJWTSecret = "router-test-secret"

type apiEnvelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type routerFixture struct {
	engine     *gin.Engine
	db         *gorm.DB
	currencyID uint
	productID  uint
}

func setupRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	models.DB = db
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	company, err := models.SeedDefaultCompany(models.SeedOptions{CompanyName: "Router Print", BaseCurrencyCode: "AED", AdminUserID: "admin-1"})
	if err != nil {
		t.Fatalf("seed company failed: %v", err)
	}
	for userID, role := range map[string]string{"designer-1": constants.RoleDesigner, "sales-1": constants.RoleSales} {
		profile := models.Profile{UserID: userID, CompanyID: company.ID, Role: role, IsActive: true}
		if err := db.Create(&profile).Error; err != nil {
			t.Fatalf("create profile failed: %v", err)
		}
	}
	product := models.Product{CompanyID: company.ID, Name: "Sticker Sheet", SKU: "ST-1", BaseUnitPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(25)), IsActive: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: testJWTSecret},
		Storage: config.StorageConfig{Driver: constants.StorageDriverMemory},
		Upload:  config.UploadConfig{MaxSize: 1 << 20, MaxFiles: 5, AllowedExtensions: []string{".png", ".pdf"}},
	}
	container, err := provider.NewContainer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewContainer error: %v", err)
	}
	return &routerFixture{
		engine:     SetupRouter(cfg, container),
		db:         db,
		currencyID: *company.BaseCurrencyID,
		productID:  product.ID,
	}
}

func (f *routerFixture) do(t *testing.T, userID, method, path string, body interface{}) apiEnvelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return f.serve(t, userID, req)
}

func (f *routerFixture) serve(t *testing.T, userID string, req *http.Request) apiEnvelope {
	t.Helper()
	if userID != "" {
		token, err := IssueAccessToken(testJWTSecret, "", userID, time.Hour)
		if err != nil {
			t.Fatalf("issue token failed: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("http status want 200 got %d: %s", w.Code, w.Body.String())
	}
	var env apiEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal response failed: %v (%s)", err, w.Body.String())
	}
	return env
}

func decodeData(t *testing.T, env apiEnvelope, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dest); err != nil {
		t.Fatalf("decode data failed: %v (%s)", err, string(env.Data))
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	f := setupRouterFixture(t)

	created := f.do(t, "admin-1", http.MethodPost, "/api/v1/orders", gin.H{
		"client_name":     "Acme Events",
		"currency_id":     f.currencyID,
		"requires_design": true,
		"items":           []gin.H{{"product_id": f.productID, "quantity": 4}},
	})
	if created.StatusCode != 0 {
		t.Fatalf("create order failed: %+v", created)
	}
	var order models.Order
	decodeData(t, created, &order)
	if order.Status != constants.OrderStatusReadyForDesign || order.TotalPriceForeign.String() != "100.0000" {
		t.Fatalf("unexpected order: status=%s total=%s", order.Status, order.TotalPriceForeign.String())
	}
	orderPath := fmt.Sprintf("/api/v1/orders/%d", order.ID)

	if env := f.do(t, "designer-1", http.MethodPost, orderPath+"/transitions/start_design", nil); env.StatusCode != 0 {
		t.Fatalf("start_design failed: %+v", env)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "proof.png")
	if err != nil {
		t.Fatalf("create form file failed: %v", err)
	}
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\nproof"))
	_ = writer.WriteField("comment", "first draft")
	_ = writer.Close()
	req := httptest.NewRequest(http.MethodPost, orderPath+"/transitions/submit_mockup", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	submitted := f.serve(t, "designer-1", req)
	if submitted.StatusCode != 0 {
		t.Fatalf("submit_mockup failed: %+v", submitted)
	}
	var result struct {
		Order       models.Order             `json:"order"`
		Attachments []models.OrderAttachment `json:"attachments"`
	}
	decodeData(t, submitted, &result)
	if result.Order.Status != constants.OrderStatusDesignApproval || len(result.Attachments) != 1 {
		t.Fatalf("unexpected transition result: %+v", result)
	}

	missingFeedback := f.do(t, "sales-1", http.MethodPost, orderPath+"/transitions/request_revision", gin.H{})
	if missingFeedback.StatusCode != 400 {
		t.Fatalf("missing feedback want 400 got %+v", missingFeedback)
	}
	forbidden := f.do(t, "designer-1", http.MethodPost, orderPath+"/transitions/approve_design", nil)
	if forbidden.StatusCode != 403 {
		t.Fatalf("designer approve want 403 got %+v", forbidden)
	}
	if env := f.do(t, "sales-1", http.MethodPost, orderPath+"/transitions/request_revision", gin.H{"feedback": "Logo too small"}); env.StatusCode != 0 {
		t.Fatalf("request_revision failed: %+v", env)
	}

	history := f.do(t, "sales-1", http.MethodGet, orderPath+"/history", nil)
	var entries []struct {
		NewStatus string `json:"new_status"`
		IsCurrent bool   `json:"is_current"`
	}
	decodeData(t, history, &entries)
	if len(entries) != 4 {
		t.Fatalf("history want 4 entries got %d", len(entries))
	}

	attachments := f.do(t, "sales-1", http.MethodGet, orderPath+"/attachments?include_archived=true", nil)
	var files []models.OrderAttachment
	decodeData(t, attachments, &files)
	if len(files) != 1 || files[0].FileType != constants.FileTypeArchivedMockup {
		t.Fatalf("expected archived mockup, got %+v", files)
	}

	comments := f.do(t, "sales-1", http.MethodGet, orderPath+"/comments", nil)
	var commentRows []models.OrderComment
	decodeData(t, comments, &commentRows)
	if len(commentRows) != 2 {
		t.Fatalf("comments want 2 got %d", len(commentRows))
	}

	queue := f.do(t, "designer-1", http.MethodGet, "/api/v1/orders/queue", nil)
	var queued []models.Order
	decodeData(t, queue, &queued)
	if len(queued) != 1 || queued[0].Status != constants.OrderStatusDesignRevision {
		t.Fatalf("designer queue unexpected: %+v", queued)
	}
}

func TestOrderEndpointsRejectBadRequests(t *testing.T) {
	f := setupRouterFixture(t)

	unauthenticated := f.do(t, "", http.MethodGet, "/api/v1/orders", nil)
	if unauthenticated.StatusCode != 401 {
		t.Fatalf("missing token want 401 got %+v", unauthenticated)
	}
	unknownProfile := f.do(t, "ghost", http.MethodGet, "/api/v1/orders", nil)
	if unknownProfile.StatusCode != 401 {
		t.Fatalf("unknown profile want 401 got %+v", unknownProfile)
	}
	notFound := f.do(t, "sales-1", http.MethodGet, "/api/v1/orders/999", nil)
	if notFound.StatusCode != 404 {
		t.Fatalf("missing order want 404 got %+v", notFound)
	}
	badID := f.do(t, "sales-1", http.MethodGet, "/api/v1/orders/abc", nil)
	if badID.StatusCode != 400 {
		t.Fatalf("bad id want 400 got %+v", badID)
	}
	badFilter := f.do(t, "sales-1", http.MethodGet, "/api/v1/orders?status=Shipped", nil)
	if badFilter.StatusCode != 400 {
		t.Fatalf("unknown status filter want 400 got %+v", badFilter)
	}
	designerCreate := f.do(t, "designer-1", http.MethodPost, "/api/v1/orders", gin.H{
		"client_name": "Acme",
		"currency_id": f.currencyID,
		"items":       []gin.H{{"product_id": f.productID, "quantity": 1}},
	})
	if designerCreate.StatusCode != 403 {
		t.Fatalf("designer create want 403 got %+v", designerCreate)
	}
	var statuses []models.OrderStatus
	decodeData(t, f.do(t, "designer-1", http.MethodGet, "/api/v1/statuses", nil), &statuses)
	if len(statuses) != len(constants.OrderStatusCatalog()) {
		t.Fatalf("status catalog want %d got %d", len(constants.OrderStatusCatalog()), len(statuses))
	}
}

func TestQuotationConvertOverHTTP(t *testing.T) {
	f := setupRouterFixture(t)

	created := f.do(t, "sales-1", http.MethodPost, "/api/v1/quotations", gin.H{
		"client_name": "Northwind",
		"currency_id": f.currencyID,
		"items":       []gin.H{{"product_id": f.productID, "quantity": 2}},
	})
	if created.StatusCode != 0 {
		t.Fatalf("create quotation failed: %+v", created)
	}
	var quotation models.Quotation
	decodeData(t, created, &quotation)

	path := fmt.Sprintf("/api/v1/quotations/%d/convert", quotation.ID)
	converted := f.do(t, "sales-1", http.MethodPost, path, gin.H{"requires_design": false})
	if converted.StatusCode != 0 {
		t.Fatalf("convert failed: %+v", converted)
	}
	var order models.Order
	decodeData(t, converted, &order)
	if order.QuotationID == nil || *order.QuotationID != quotation.ID || order.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("unexpected converted order: %+v", order)
	}
	again := f.do(t, "sales-1", http.MethodPost, path, nil)
	if again.StatusCode != 400 {
		t.Fatalf("second convert want 400 got %+v", again)
	}
}

func TestHealthEndpoint(t *testing.T) {
	f := setupRouterFixture(t)
	env := f.do(t, "", http.MethodGet, "/health", nil)
	var status map[string]string
	decodeData(t, env, &status)
	if env.StatusCode != 0 || status["database"] != "ok" || !strings.Contains(status["redis"], "disabled") {
		t.Fatalf("unexpected health response: %+v %v", env, status)
	}
}

func TestAuthzPolicyManagementOverHTTP(t *testing.T) {
	f := setupRouterFixture(t)
	path := "/api/v1/authz/roles/production/policies"

	hasAction := func(env apiEnvelope, action string) bool {
		var policies []struct {
			Object string `json:"object"`
			Action string `json:"action"`
		}
		decodeData(t, env, &policies)
		for _, policy := range policies {
			if policy.Object == "order" && policy.Action == action {
				return true
			}
		}
		return false
	}

	if forbidden := f.do(t, "sales-1", http.MethodPost, path, gin.H{"action": "start_design"}); forbidden.StatusCode != 403 {
		t.Fatalf("non-admin grant want 403 got %+v", forbidden)
	}
	if unknown := f.do(t, "admin-1", http.MethodPost, path, gin.H{"action": "launch_rocket"}); unknown.StatusCode != 400 {
		t.Fatalf("unknown action want 400 got %+v", unknown)
	}
	if badRole := f.do(t, "admin-1", http.MethodPost, "/api/v1/authz/roles/intern/policies", gin.H{"action": "start_design"}); badRole.StatusCode != 400 {
		t.Fatalf("unknown role want 400 got %+v", badRole)
	}

	granted := f.do(t, "admin-1", http.MethodPost, path, gin.H{"object": "order", "action": "start_design"})
	if granted.StatusCode != 0 || granted.Msg != "policy granted" || !hasAction(granted, "start_design") {
		t.Fatalf("grant response unexpected: %+v", granted)
	}

	reloaded := f.do(t, "admin-1", http.MethodPost, "/api/v1/authz/reload", nil)
	if reloaded.StatusCode != 0 || reloaded.Msg != "policy reloaded" {
		t.Fatalf("reload response unexpected: %+v", reloaded)
	}
	if !hasAction(f.do(t, "admin-1", http.MethodGet, path, nil), "start_design") {
		t.Fatalf("granted policy should survive reload")
	}

	revoked := f.do(t, "admin-1", http.MethodDelete, path, gin.H{"object": "order", "action": "start_design"})
	if revoked.StatusCode != 0 || revoked.Msg != "policy revoked" || hasAction(revoked, "start_design") {
		t.Fatalf("revoke response unexpected: %+v", revoked)
	}
	if !hasAction(revoked, "mark_ready") {
		t.Fatalf("builtin policies should remain after revoke")
	}
}
