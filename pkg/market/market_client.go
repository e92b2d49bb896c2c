package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// ==================== 凭证透传 ====================

type tokenContextKey struct{}

// WithToken 将调用方的 Bearer Token 注入 context，由客户端透传给上游
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext 读取透传凭证
func TokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(tokenContextKey{}).(string); ok {
		return token
	}
	return ""
}

// ==================== 客户端 ====================

// Options 客户端配置
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Debug     bool
	UserAgent string
}

// Client 上游市场 REST API 客户端
// 不做重试：提交流程要求失败即停止
type Client struct {
	http *resty.Client
}

// NewClient 创建客户端
func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Listing-Studio/1.0"
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetDebug(opts.Debug).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", opts.UserAgent)

	return &Client{http: client}
}

// request 构建带 context 与凭证的请求
func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if token := TokenFromContext(ctx); token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// do 执行请求并统一处理错误
func do(resp *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, newAPIError(resp.StatusCode(), resp.Body())
	}
	return resp, nil
}

// ==================== Listing ====================

// CreateListing 创建 Listing
func (c *Client) CreateListing(ctx context.Context, payload *ListingPayload) (*CreateListingResp, error) {
	resp, err := do(c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post("/listing"))
	if err != nil {
		return nil, err
	}

	var result CreateListingResp
	if len(bytes.TrimSpace(resp.Body())) == 0 {
		return &result, nil
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("解析创建响应失败: %w", err)
	}
	return &result, nil
}

// UpdateListing 更新 Listing
func (c *Client) UpdateListing(ctx context.Context, listingID int64, payload *ListingPayload) error {
	_, err := do(c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Put("/listing/" + strconv.FormatInt(listingID, 10)))
	return err
}

// GetListing 获取 Listing 详情（编辑模式回填）
func (c *Client) GetListing(ctx context.Context, listingID int64) (*ListingRecord, error) {
	resp, err := do(c.request(ctx).Get("/listing/" + strconv.FormatInt(listingID, 10)))
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Listing *ListingRecord `json:"listing"`
	}
	if err := json.Unmarshal(resp.Body(), &wrapped); err != nil {
		return nil, fmt.Errorf("解析 Listing 失败: %w", err)
	}
	if wrapped.Listing == nil {
		return nil, fmt.Errorf("Listing %d 不存在", listingID)
	}
	return wrapped.Listing, nil
}

// UploadMedia 以单个 multipart 请求上传全部图片
// 字段：重复的 media（文件）、sort_order、file_type=image
func (c *Client) UploadMedia(ctx context.Context, listingID int64, files []MediaUpload, sortOrders []string) error {
	req := c.request(ctx)

	fields := make([]*resty.MultipartField, 0, len(files))
	for _, f := range files {
		fields = append(fields, &resty.MultipartField{
			Param:       "media",
			FileName:    f.Filename,
			ContentType: f.ContentType,
			Reader:      bytes.NewReader(f.Data),
		})
	}
	req.SetMultipartFields(fields...)

	form := url.Values{}
	for _, order := range sortOrders {
		form.Add("sort_order", order)
	}
	form.Set("file_type", "image")
	req.SetFormDataFromValues(form)

	_, err := do(req.Post(fmt.Sprintf("/listing/%d/media", listingID)))
	return err
}

// UpdateStatus 变更 Listing 状态
func (c *Client) UpdateStatus(ctx context.Context, listingID int64, status string) error {
	_, err := do(c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(&StatusUpdateReq{Status: status}).
		Patch(fmt.Sprintf("/listing/%d/status", listingID)))
	return err
}

// ListMyListings 当前卖家的 Listing 列表
func (c *Client) ListMyListings(ctx context.Context, status string) ([]ListingSummary, error) {
	req := c.request(ctx)
	if status != "" {
		req.SetQueryParam("status", status)
	}

	resp, err := do(req.Get("/listing/my"))
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Listings []ListingSummary `json:"listings"`
	}
	if err := json.Unmarshal(resp.Body(), &wrapped); err != nil {
		return nil, fmt.Errorf("解析 Listing 列表失败: %w", err)
	}
	return wrapped.Listings, nil
}

// ==================== 分类 ====================

// ParentCategories 顶级分类
func (c *Client) ParentCategories(ctx context.Context) ([]Category, error) {
	resp, err := do(c.request(ctx).Get("/listing/categories/parent"))
	if err != nil {
		return nil, err
	}
	return decodeCategories(resp.Body())
}

// Subcategories 子分类
func (c *Client) Subcategories(ctx context.Context, categoryID int64) ([]Category, error) {
	resp, err := do(c.request(ctx).Get(fmt.Sprintf("/listing/categories/%d/subcategories", categoryID)))
	if err != nil {
		return nil, err
	}
	return decodeCategories(resp.Body())
}

// decodeCategories 兼容数组与 {"categories": [...]} / {"subcategories": [...]} 两种响应
func decodeCategories(body []byte) ([]Category, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []Category{}, nil
	}

	if body[0] == '[' {
		var list []Category
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("解析分类失败: %w", err)
		}
		return list, nil
	}

	var wrapped struct {
		Categories    []Category `json:"categories"`
		Subcategories []Category `json:"subcategories"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("解析分类失败: %w", err)
	}
	if wrapped.Subcategories != nil {
		return wrapped.Subcategories, nil
	}
	if wrapped.Categories != nil {
		return wrapped.Categories, nil
	}
	return []Category{}, nil
}

// ==================== 用户 ====================

// Profile 当前用户资料
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	if TokenFromContext(ctx) == "" {
		return nil, ErrNoToken
	}

	resp, err := do(c.request(ctx).Get("/user/profile"))
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		User *Profile `json:"user"`
	}
	if err := json.Unmarshal(resp.Body(), &wrapped); err != nil {
		return nil, fmt.Errorf("解析用户资料失败: %w", err)
	}
	if wrapped.User == nil {
		return nil, &APIError{StatusCode: http.StatusNotFound, Message: "user profile not found"}
	}
	return wrapped.User, nil
}
