package service

import (
	"context"
	"strings"

	"github.com/edgemarket/internal/models"
	"github.com/edgemarket/internal/repository"
)

// ContentService manages news items and deposit wallet addresses
type ContentService struct {
	store repository.Store
}

// NewContentService creates a new ContentService
func NewContentService(store repository.Store) *ContentService {
	return &ContentService{store: store}
}

// NewsRequest creates or updates a news item
type NewsRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Body        string `json:"body"`
	ImageURL    string `json:"image_url" binding:"omitempty,url,max=500"`
	IsPublished *bool  `json:"is_published"`
}

// WalletRequest sets the deposit address of a currency
type WalletRequest struct {
	Currency string `json:"currency" binding:"required,max=10"`
	Network  string `json:"network" binding:"omitempty,max=30"`
	Address  string `json:"address" binding:"required,max=255"`
}

// ListNews returns news, newest first
func (s *ContentService) ListNews(ctx context.Context, publishedOnly bool) ([]models.News, error) {
	return s.store.News().List(ctx, publishedOnly)
}

// CreateNews creates a news item, published unless stated otherwise
func (s *ContentService) CreateNews(ctx context.Context, req *NewsRequest) (*models.News, error) {
	news := &models.News{
		Title:       strings.TrimSpace(req.Title),
		Body:        req.Body,
		ImageURL:    req.ImageURL,
		IsPublished: req.IsPublished == nil || *req.IsPublished,
	}
	if news.Title == "" {
		return nil, ErrInvalidArgument
	}
	if err := s.store.News().Create(ctx, news); err != nil {
		return nil, err
	}
	return news, nil
}

// UpdateNews replaces a news item
func (s *ContentService) UpdateNews(ctx context.Context, id uint, req *NewsRequest) (*models.News, error) {
	news, err := s.store.News().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	news.Title = strings.TrimSpace(req.Title)
	news.Body = req.Body
	news.ImageURL = req.ImageURL
	if req.IsPublished != nil {
		news.IsPublished = *req.IsPublished
	}
	if news.Title == "" {
		return nil, ErrInvalidArgument
	}
	if err := s.store.News().Update(ctx, news); err != nil {
		return nil, err
	}
	return news, nil
}

// DeleteNews removes a news item
func (s *ContentService) DeleteNews(ctx context.Context, id uint) error {
	return s.store.News().Delete(ctx, id)
}

// ListWallets returns every configured deposit address
func (s *ContentService) ListWallets(ctx context.Context) ([]models.WalletAddress, error) {
	return s.store.Wallets().List(ctx)
}

// SetWallet creates or replaces the deposit address of a currency
func (s *ContentService) SetWallet(ctx context.Context, req *WalletRequest) (*models.WalletAddress, error) {
	wallet := &models.WalletAddress{
		Currency: strings.ToUpper(strings.TrimSpace(req.Currency)),
		Network:  strings.TrimSpace(req.Network),
		Address:  strings.TrimSpace(req.Address),
	}
	if wallet.Currency == "" || wallet.Address == "" {
		return nil, ErrInvalidArgument
	}
	if err := s.store.Wallets().Upsert(ctx, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

// DeleteWallet removes the deposit address of a currency
func (s *ContentService) DeleteWallet(ctx context.Context, currency string) error {
	return s.store.Wallets().Delete(ctx, strings.ToUpper(currency))
}
