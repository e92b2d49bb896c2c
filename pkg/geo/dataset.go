package geo

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

//go:embed data/locations.json
var defaultDataset []byte

// Country 国家
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// State 州/省
type State struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
}

// City 城市
type City struct {
	Name        string `json:"name"`
	StateCode   string `json:"state_code"`
	CountryCode string `json:"country_code"`
}

type rawState struct {
	Code   string   `json:"code"`
	Name   string   `json:"name"`
	Cities []string `json:"cities"`
}

type rawCountry struct {
	Code   string     `json:"code"`
	Name   string     `json:"name"`
	States []rawState `json:"states"`
}

// Dataset 只读的 国家 -> 州 -> 城市 参考数据
// 加载后不再修改，可并发读
type Dataset struct {
	countries []Country
	states    map[string][]State // key: 国家代码
	cities    map[string][]City  // key: 国家代码/州代码
}

// Default 加载内置数据集
func Default() (*Dataset, error) {
	return Parse(defaultDataset)
}

// Parse 解析 JSON 数据集
func Parse(data []byte) (*Dataset, error) {
	var raw []rawCountry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("解析地理数据失败: %w", err)
	}

	ds := &Dataset{
		countries: make([]Country, 0, len(raw)),
		states:    make(map[string][]State, len(raw)),
		cities:    make(map[string][]City),
	}

	for _, c := range raw {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if code == "" || c.Name == "" {
			return nil, fmt.Errorf("国家数据缺少 code 或 name")
		}
		ds.countries = append(ds.countries, Country{Code: code, Name: c.Name})

		states := make([]State, 0, len(c.States))
		for _, s := range c.States {
			stateCode := strings.ToUpper(strings.TrimSpace(s.Code))
			states = append(states, State{Code: stateCode, Name: s.Name, CountryCode: code})

			cities := make([]City, 0, len(s.Cities))
			for _, name := range s.Cities {
				cities = append(cities, City{Name: name, StateCode: stateCode, CountryCode: code})
			}
			ds.cities[cityKey(code, stateCode)] = cities
		}
		ds.states[code] = states
	}

	sort.SliceStable(ds.countries, func(i, j int) bool {
		return ds.countries[i].Name < ds.countries[j].Name
	})

	return ds, nil
}

func cityKey(countryCode, stateCode string) string {
	return countryCode + "/" + stateCode
}

// Countries 全部国家（按名称排序）
func (d *Dataset) Countries(ctx context.Context) ([]Country, error) {
	out := make([]Country, len(d.countries))
	copy(out, d.countries)
	return out, nil
}

// States 国家下的州，未知国家返回空列表
func (d *Dataset) States(ctx context.Context, countryCode string) ([]State, error) {
	states := d.states[strings.ToUpper(countryCode)]
	out := make([]State, len(states))
	copy(out, states)
	return out, nil
}

// Cities 州下的城市，未知组合返回空列表
func (d *Dataset) Cities(ctx context.Context, countryCode, stateCode string) ([]City, error) {
	cities := d.cities[cityKey(strings.ToUpper(countryCode), strings.ToUpper(stateCode))]
	out := make([]City, len(cities))
	copy(out, cities)
	return out, nil
}
