package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Nafis5858/Krishak/pkg/db/models"
	"github.com/Nafis5858/Krishak/pkg/enums"
	"github.com/Nafis5858/Krishak/pkg/types"
)

// User inserts an active user with the given role; mutate may adjust it first.
func User(t testing.TB, conn *gorm.DB, role enums.UserRole, mutate ...func(*models.User)) *models.User {
	t.Helper()
	user := &models.User{
		Name:     fmt.Sprintf("%s %s", role, uuid.NewString()[:6]),
		Email:    fmt.Sprintf("%s@krishak.test", uuid.NewString()),
		Role:     role,
		IsActive: true,
	}
	for _, fn := range mutate {
		fn(user)
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// Product inserts an active listing owned by farmerID.
func Product(t testing.TB, conn *gorm.DB, farmerID uuid.UUID, mutate ...func(*models.Product)) *models.Product {
	t.Helper()
	product := &models.Product{
		FarmerID:          farmerID,
		CropName:          "Potato",
		Category:          enums.ProductCategoryVegetables,
		Grade:             enums.ProductGradeA,
		Unit:              "kg",
		PricePerUnit:      decimal.NewFromInt(30),
		QuantityAvailable: decimal.NewFromInt(500),
		IsActive:          true,
	}
	for _, fn := range mutate {
		fn(product)
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

// Order inserts a confirmed, unassigned order for product bought by buyerID.
func Order(t testing.TB, conn *gorm.DB, buyerID uuid.UUID, product *models.Product, mutate ...func(*models.Order)) *models.Order {
	t.Helper()
	qty := decimal.NewFromInt(10)
	order := &models.Order{
		OrderNumber:     fmt.Sprintf("KR-TEST-%s", uuid.NewString()[:8]),
		BuyerID:         buyerID,
		FarmerID:        product.FarmerID,
		ProductID:       product.ID,
		Quantity:        qty,
		Unit:            product.Unit,
		OrderStatus:     enums.OrderStatusConfirmed,
		DeliveryStatus:  enums.DeliveryStatusNotAssigned,
		DeliveryAddress: types.DeliveryAddress{Address: "House 1, Road 2", District: "Dhaka", City: "Dhaka"},
		StatusHistory:   types.StatusHistory{},
		PriceBreakdown:  types.NewPriceBreakdown(product.PricePerUnit, qty, decimal.NewFromInt(100), decimal.NewFromInt(2)),
	}
	for _, fn := range mutate {
		fn(order)
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	// Keeps created_at strictly increasing between fixtures.
	time.Sleep(2 * time.Millisecond)
	return order
}
