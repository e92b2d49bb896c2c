package draft

import (
	"context"
	"fmt"

	"listing_studio/internal/model"
)

// CategorySource 子分类加载
type CategorySource interface {
	Subcategories(ctx context.Context, categoryID int64) ([]model.Category, error)
}

// Form Listing 编辑表单
// 四个标签页共享同一份草稿，组合服务区域累加器与图片暂存区
// 非并发安全，由调用方（会话）串行访问
type Form struct {
	ID        string
	UserID    int64
	ListingID int64  // 0 表示新建
	Status    string // 编辑模式下上游的原状态

	Draft     model.ListingDraft
	Locations *LocationAccumulator
	Media     *MediaBuffer
	Tabs      TabStepper
	Notices   Notices

	categories    CategorySource
	subcategories []model.Category

	// 完成/取消回调
	OnComplete func(listingID int64)
	OnCancel   func()
}

// NewForm 创建空白表单（新建模式）
// 服务类型与计价方式是下拉选择，默认取第一项
func NewForm(id string, userID int64, locations LocationProvider, categories CategorySource) *Form {
	d := model.ListingDraft{Tags: []string{}}
	d.ServiceType = model.ServiceTypeOneTime
	d.PricingModel = model.PricingModelFixed

	return &Form{
		ID:         id,
		UserID:     userID,
		Draft:      d,
		Locations:  NewLocationAccumulator(locations),
		Media:      NewMediaBuffer(),
		categories: categories,
	}
}

// IsEdit 是否编辑已有 Listing
func (f *Form) IsEdit() bool {
	return f.ListingID > 0
}

// Hydrate 用已有 Listing 回填（编辑模式）
// 子分类列表加载失败时保留原选择，信任上游数据
func (f *Form) Hydrate(ctx context.Context, listingID int64, status string, d model.ListingDraft, countries, states, cities []string) {
	f.ListingID = listingID
	f.Status = status

	f.Draft = model.ListingDraft{
		BasicInfo:     d.BasicInfo,
		Pricing:       d.Pricing,
		CategoryID:    d.CategoryID,
		SubcategoryID: d.SubcategoryID,
		Tags:          []string{},
	}
	if f.Draft.ServiceType == "" {
		f.Draft.ServiceType = model.ServiceTypeOneTime
	}
	if f.Draft.PricingModel == "" {
		f.Draft.PricingModel = model.PricingModelFixed
	}
	for _, tag := range d.Tags {
		f.Draft.AddTag(tag)
	}

	f.Locations.ClearAll()
	f.Locations.Load(countries, states, cities)

	if f.Draft.CategoryID > 0 {
		if subs, err := f.categories.Subcategories(ctx, f.Draft.CategoryID); err == nil {
			f.subcategories = subs
		}
	}
}

// ==================== basic / pricing ====================

// SetBasicInfo 更新基本信息
func (f *Form) SetBasicInfo(info model.BasicInfo) error {
	if info.ServiceType != "" && !info.ServiceType.Valid() {
		return Validation(fmt.Sprintf("Unknown service type: %s", info.ServiceType))
	}
	// 未传服务类型时保留当前选择
	if info.ServiceType == "" {
		info.ServiceType = f.Draft.ServiceType
	}
	f.Draft.BasicInfo = info
	return nil
}

// SetPricing 更新价格信息
func (f *Form) SetPricing(p model.Pricing) error {
	if p.PricingModel != "" && !p.PricingModel.Valid() {
		return Validation(fmt.Sprintf("Unknown pricing model: %s", p.PricingModel))
	}
	if p.MinPrice < 0 || p.MaxPrice < 0 {
		return Validation("Prices cannot be negative")
	}
	if p.PricingModel == "" {
		p.PricingModel = f.Draft.PricingModel
	}
	f.Draft.Pricing = p
	return nil
}

// ==================== 标签 ====================

// AddTag 追加标签（有序去重）
func (f *Form) AddTag(tag string) error {
	if !f.Draft.AddTag(tag) {
		return Validation("Tag is empty or already added")
	}
	return nil
}

func (f *Form) RemoveTag(tag string) {
	f.Draft.RemoveTag(tag)
}

// ==================== 分类 ====================

// SelectCategory 选择分类并重新加载子分类
// 已选子分类不属于新分类时被清空
func (f *Form) SelectCategory(ctx context.Context, categoryID int64) error {
	if categoryID <= 0 {
		return Validation("Please select a category")
	}

	f.Draft.CategoryID = categoryID
	subs, err := f.categories.Subcategories(ctx, categoryID)
	if err != nil {
		f.subcategories = nil
		f.Draft.SubcategoryID = nil
		return Transport(err)
	}
	f.subcategories = subs

	if f.Draft.SubcategoryID != nil && !f.hasSubcategory(*f.Draft.SubcategoryID) {
		f.Draft.SubcategoryID = nil
	}
	return nil
}

// SelectSubcategory 选择子分类，nil 表示清空
func (f *Form) SelectSubcategory(subcategoryID *int64) error {
	if subcategoryID == nil {
		f.Draft.SubcategoryID = nil
		return nil
	}
	if f.Draft.CategoryID == 0 {
		return Validation("Please select a category first")
	}
	if !f.hasSubcategory(*subcategoryID) {
		return Validation("Please select a valid subcategory")
	}
	id := *subcategoryID
	f.Draft.SubcategoryID = &id
	return nil
}

// Subcategories 当前分类下的子分类
func (f *Form) Subcategories() []model.Category {
	out := make([]model.Category, len(f.subcategories))
	copy(out, f.subcategories)
	return out
}

func (f *Form) hasSubcategory(id int64) bool {
	for _, s := range f.subcategories {
		if s.ID == id {
			return true
		}
	}
	return false
}

// ==================== 服务区域（带提示） ====================

// AddLocation 确认当前级联选择，成功时推送提示
func (f *Form) AddLocation() (model.ServiceLocation, error) {
	loc, err := f.Locations.AddLocation()
	if err != nil {
		return loc, err
	}
	f.Notices.Push(NoticeSuccess, "Location added successfully")
	return loc, nil
}

// ==================== 提交前置条件 ====================

// CheckSubmittable 提交前的本地检查，不发起任何网络调用
func (f *Form) CheckSubmittable() error {
	if !f.Tabs.IsLast() {
		return Validation("Please complete all steps before submitting")
	}
	if !f.IsEdit() && f.Media.Empty() {
		return Validation(MsgImageRequired)
	}
	return nil
}

// Complete 提交成功
func (f *Form) Complete(listingID int64) {
	if f.OnComplete != nil {
		f.OnComplete(listingID)
	}
}

// Cancel 放弃编辑，无副作用
func (f *Form) Cancel() {
	if f.OnCancel != nil {
		f.OnCancel()
	}
}
