package service

// Тесты сервисного слоя shop-service.
//
// Подготовка окружения:
//   # 1) Сгенерировать моки:
//   mockgen -destination=./mocks/storage.go -package=mocks github.com/pribylovaa/go-social-shop/internal/storage Storage
//   mockgen -destination=./mocks/payment.go -package=mocks github.com/pribylovaa/go-social-shop/internal/service PaymentGateway
//   mockgen -destination=./mocks/cache.go -package=mocks github.com/pribylovaa/go-social-shop/internal/cache ProductCache
//
//   # 2) Запустить тесты:
//   go test ./internal/service -v -race -count=1

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pribylovaa/go-social-shop/internal/config"
	"github.com/pribylovaa/go-social-shop/mocks"
)

const testPaymentSecret = "test-key-secret"

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() config.Config {
	return config.Config{
		Payment:  config.PaymentConfig{KeySecret: testPaymentSecret, Currency: "INR"},
		Comments: config.CommentsConfig{MaxLength: 200},
	}
}

// newServiceWithMocks — поднимает сервис с моками стораджа и платёжного шлюза.
func newServiceWithMocks(t *testing.T) (*Service, *mocks.MockStorage, *mocks.MockPaymentGateway, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	ms := mocks.NewMockStorage(ctrl)
	mg := mocks.NewMockPaymentGateway(ctrl)

	s := New(ms, mg, testConfig())
	s.now = func() time.Time { return fixedNow }

	return s, ms, mg, ctrl
}
