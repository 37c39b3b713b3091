package finance

import (
	"strconv"
	"strings"

	"family-portal/internal/models"

	"gorm.io/gorm"
)

// CategoryView is the listing read model. Budget is the monthly budget
// in currency units, nil when unset.
type CategoryView struct {
	ID           uint     `json:"id"`
	Name         string   `json:"name"`
	Color        string   `json:"color"`
	Budget       *float64 `json:"budget"`
	CategoryType string   `json:"category_type"`
	OwnerID      *uint    `json:"ownerId"`
}

// visibleCategories returns the actor's own categories plus shared
// ones; admins see all.
func (s *Service) visibleCategories(actor Actor) ([]models.Category, error) {
	q := s.db.Order("name ASC")
	if !actor.IsAdmin {
		q = q.Where("owner_id = ? OR owner_id IS NULL", actor.UserID)
	}
	var categories []models.Category
	if err := q.Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Service) ListCategories(actor Actor) ([]CategoryView, error) {
	categories, err := s.visibleCategories(actor)
	if err != nil {
		return nil, err
	}
	views := make([]CategoryView, 0, len(categories))
	for i := range categories {
		views = append(views, categoryView(&categories[i]))
	}
	return views, nil
}

func categoryView(c *models.Category) CategoryView {
	view := CategoryView{
		ID:           c.ID,
		Name:         c.Name,
		Color:        c.Color,
		CategoryType: c.CategoryType,
		OwnerID:      c.OwnerID,
	}
	if c.MonthlyBudgetCent != nil {
		b := AmountOf(*c.MonthlyBudgetCent)
		view.Budget = &b
	}
	return view
}

type CategoryInput struct {
	Name         string
	Color        string
	Budget       *float64 // currency units; values <= 0 clear the budget
	CategoryType string
	Shared       bool // honored for admins only
}

func (s *Service) CreateCategory(actor Actor, in CategoryInput) (uint, error) {
	name := cleanText(in.Name, "", 64)
	if name == "" {
		return 0, validationf("category name required")
	}
	catType := in.CategoryType
	if catType == "" {
		catType = KindExpense
	}
	if !validKind(catType) {
		return 0, validationf("invalid category type %q", in.CategoryType)
	}

	var owner *uint
	if !(actor.IsAdmin && in.Shared) {
		uid := actor.UserID
		owner = &uid
	}
	cat := models.Category{
		Name:              name,
		Color:             truncate(strings.TrimSpace(in.Color), 20),
		MonthlyBudgetCent: budgetCents(in.Budget),
		OwnerID:           owner,
		CategoryType:      catType,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&cat).Error; err != nil {
			return err
		}
		return audit(tx, actor.UserID, "category_create", "category",
			strconv.Itoa(int(cat.ID)), "name="+name)
	})
	if err != nil {
		return 0, err
	}
	return cat.ID, nil
}

type UpdateCategoryInput struct {
	Name   *string
	Color  *string
	Budget *float64 // <= 0 clears
}

func (s *Service) UpdateCategory(actor Actor, id uint, in UpdateCategoryInput) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var cat models.Category
		if err := tx.First(&cat, id).Error; err != nil {
			return notFoundOr(err)
		}
		if !actor.canEditShared(cat.OwnerID) {
			return ErrPermissionDenied
		}
		if in.Name != nil {
			if n := cleanText(*in.Name, "", 64); n != "" {
				cat.Name = n
			}
		}
		if in.Color != nil {
			cat.Color = truncate(strings.TrimSpace(*in.Color), 20)
		}
		if in.Budget != nil {
			cat.MonthlyBudgetCent = budgetCents(in.Budget)
		}
		if err := tx.Save(&cat).Error; err != nil {
			return err
		}
		return audit(tx, actor.UserID, "category_update", "category",
			strconv.Itoa(int(cat.ID)), "name="+cat.Name)
	})
}

// DeleteCategory removes a category and detaches the entries that
// reference it. The entries keep their denormalized category name.
func (s *Service) DeleteCategory(actor Actor, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var cat models.Category
		if err := tx.First(&cat, id).Error; err != nil {
			return notFoundOr(err)
		}
		if !actor.canEditShared(cat.OwnerID) {
			return ErrPermissionDenied
		}
		if err := tx.Model(&models.Entry{}).
			Where("category_id = ?", cat.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Delete(&cat).Error; err != nil {
			return err
		}
		return audit(tx, actor.UserID, "category_delete", "category",
			strconv.Itoa(int(cat.ID)), "name="+cat.Name)
	})
}

func budgetCents(budget *float64) *int64 {
	if budget == nil || *budget <= 0 {
		return nil
	}
	c := Cents(*budget)
	return &c
}
