package draft

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"listing_studio/internal/model"
	"listing_studio/pkg/geo"
)

// LocationProvider 国家/州/城市 参考数据（只读）
type LocationProvider interface {
	Countries(ctx context.Context) ([]geo.Country, error)
	States(ctx context.Context, countryCode string) ([]geo.State, error)
	Cities(ctx context.Context, countryCode, stateCode string) ([]geo.City, error)
}

// PendingLocation 级联选择器中尚未确认的选择
type PendingLocation struct {
	Country *geo.Country `json:"country"`
	State   *geo.State   `json:"state"`
	City    *geo.City    `json:"city"`
}

// LocationArrays 提交时的三组平行数组
type LocationArrays struct {
	Countries []string `json:"service_countries"`
	States    []string `json:"service_states"`
	Cities    []string `json:"service_cities"`
}

// LocationAccumulator 服务区域累加器
// 已确认的区域与级联选择器的当前状态相互独立
type LocationAccumulator struct {
	provider  LocationProvider
	locations []model.ServiceLocation
	pending   PendingLocation

	stateOptions []geo.State
	cityOptions  []geo.City

	newID func() string
}

// NewLocationAccumulator 创建累加器
func NewLocationAccumulator(provider LocationProvider) *LocationAccumulator {
	return &LocationAccumulator{
		provider: provider,
		newID:    uuid.NewString,
	}
}

// ==================== 级联选择 ====================

// SelectCountry 选择国家：清空州与城市，加载该国的州列表
// 州列表为空是合法的；参考数据加载失败时选择仍然生效，返回 transport 错误
func (a *LocationAccumulator) SelectCountry(ctx context.Context, countryCode string) error {
	countries, err := a.provider.Countries(ctx)
	if err != nil {
		return Transport(err)
	}

	var selected *geo.Country
	for i := range countries {
		if strings.EqualFold(countries[i].Code, countryCode) {
			c := countries[i]
			selected = &c
			break
		}
	}
	if selected == nil {
		return Validation("Unknown country")
	}

	a.pending = PendingLocation{Country: selected}
	a.stateOptions = nil
	a.cityOptions = nil

	states, err := a.provider.States(ctx, selected.Code)
	if err != nil {
		return Transport(err)
	}
	a.stateOptions = states
	return nil
}

// SelectState 选择州：要求已选国家，清空城市并加载城市列表
func (a *LocationAccumulator) SelectState(ctx context.Context, stateCode string) error {
	if a.pending.Country == nil {
		return Validation("Please select a country first")
	}

	var selected *geo.State
	for i := range a.stateOptions {
		if strings.EqualFold(a.stateOptions[i].Code, stateCode) {
			s := a.stateOptions[i]
			selected = &s
			break
		}
	}
	if selected == nil {
		return Validation("Unknown state")
	}

	a.pending.State = selected
	a.pending.City = nil
	a.cityOptions = nil

	cities, err := a.provider.Cities(ctx, a.pending.Country.Code, selected.Code)
	if err != nil {
		return Transport(err)
	}
	a.cityOptions = cities
	return nil
}

// SelectCity 选择城市：要求已选州
func (a *LocationAccumulator) SelectCity(cityName string) error {
	if a.pending.State == nil {
		return Validation("Please select a state first")
	}

	for i := range a.cityOptions {
		if a.cityOptions[i].Name == cityName {
			c := a.cityOptions[i]
			a.pending.City = &c
			return nil
		}
	}
	return Validation("Unknown city")
}

// ==================== 累加操作 ====================

// AddLocation 确认当前选择并追加
// 成功后清空三级选择
func (a *LocationAccumulator) AddLocation() (model.ServiceLocation, error) {
	p := a.pending
	if p.Country == nil || p.State == nil || p.City == nil {
		return model.ServiceLocation{}, Validation(MsgIncompleteLocation)
	}

	if a.contains(p.Country.Name, p.State.Name, p.City.Name) {
		return model.ServiceLocation{}, newError(KindDuplicate, MsgDuplicateLocation)
	}

	loc := model.ServiceLocation{
		ID:      a.newID(),
		Country: p.Country.Name,
		State:   p.State.Name,
		City:    p.City.Name,
	}
	a.locations = append(a.locations, loc)

	a.pending = PendingLocation{}
	a.stateOptions = nil
	a.cityOptions = nil

	return loc, nil
}

// RemoveLocation 按 ID 删除，不存在时无操作
func (a *LocationAccumulator) RemoveLocation(id string) {
	kept := make([]model.ServiceLocation, 0, len(a.locations))
	for _, loc := range a.locations {
		if loc.ID != id {
			kept = append(kept, loc)
		}
	}
	a.locations = kept
}

// ClearAll 清空全部已确认区域
func (a *LocationAccumulator) ClearAll() {
	a.locations = nil
}

// Load 从已有 Listing 的平行数组回填（编辑模式）
// 不完整或重复的行被跳过，返回实际载入数量
func (a *LocationAccumulator) Load(countries, states, cities []string) int {
	n := len(countries)
	if len(states) < n {
		n = len(states)
	}
	if len(cities) < n {
		n = len(cities)
	}

	loaded := 0
	for i := 0; i < n; i++ {
		country := strings.TrimSpace(countries[i])
		state := strings.TrimSpace(states[i])
		city := strings.TrimSpace(cities[i])
		if country == "" || state == "" || city == "" || a.contains(country, state, city) {
			continue
		}
		a.locations = append(a.locations, model.ServiceLocation{
			ID:      a.newID(),
			Country: country,
			State:   state,
			City:    city,
		})
		loaded++
	}
	return loaded
}

// ToArrays 按插入顺序投影为三组平行数组（纯函数）
func (a *LocationAccumulator) ToArrays() LocationArrays {
	out := LocationArrays{
		Countries: make([]string, 0, len(a.locations)),
		States:    make([]string, 0, len(a.locations)),
		Cities:    make([]string, 0, len(a.locations)),
	}
	for _, loc := range a.locations {
		out.Countries = append(out.Countries, loc.Country)
		out.States = append(out.States, loc.State)
		out.Cities = append(out.Cities, loc.City)
	}
	return out
}

// ==================== 查询 ====================

// Locations 已确认区域（副本）
func (a *LocationAccumulator) Locations() []model.ServiceLocation {
	out := make([]model.ServiceLocation, len(a.locations))
	copy(out, a.locations)
	return out
}

func (a *LocationAccumulator) Len() int {
	return len(a.locations)
}

// Pending 当前级联选择
func (a *LocationAccumulator) Pending() PendingLocation {
	return a.pending
}

// StateOptions 当前国家下可选的州
func (a *LocationAccumulator) StateOptions() []geo.State {
	out := make([]geo.State, len(a.stateOptions))
	copy(out, a.stateOptions)
	return out
}

// CityOptions 当前州下可选的城市
func (a *LocationAccumulator) CityOptions() []geo.City {
	out := make([]geo.City, len(a.cityOptions))
	copy(out, a.cityOptions)
	return out
}

func (a *LocationAccumulator) contains(country, state, city string) bool {
	for _, loc := range a.locations {
		if loc.SameAs(country, state, city) {
			return true
		}
	}
	return false
}
