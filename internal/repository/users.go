package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmeshcher/service-tracker/internal/model"
	"github.com/mmeshcher/service-tracker/internal/store"
)

// ProfileRepository хранит профили пользователей с ролями.
type ProfileRepository struct {
	st store.Store
}

// Get возвращает профиль по идентификатору пользователя.
func (r *ProfileRepository) Get(ctx context.Context, id string) (*model.Profile, error) {
	p, err := selectOne[model.Profile](ctx, r.st, store.Users, store.Where(store.Eq("id", id)))
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	return p, nil
}

// UsernameTaken сообщает, занято ли имя пользователя.
func (r *ProfileRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	_, err := selectOne[model.Profile](ctx, r.st, store.Users, store.Where(store.Eq("username", username)))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return true, nil
}

// Create сохраняет профиль.
func (r *ProfileRepository) Create(ctx context.Context, p model.Profile) error {
	rec, err := toRecord(p)
	if err != nil {
		return err
	}
	if _, err := r.st.Insert(ctx, store.Users, rec); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// CredentialRepository хранит учётные данные локального провайдера аутентификации.
type CredentialRepository struct {
	st store.Store
}

// GetByEmail возвращает учётные данные по адресу почты.
func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*model.Credential, error) {
	c, err := selectOne[model.Credential](ctx, r.st, store.AuthUsers, store.Where(store.Eq("email", email)))
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return c, nil
}

// Create сохраняет учётные данные.
func (r *CredentialRepository) Create(ctx context.Context, c model.Credential) error {
	rec, err := toRecord(c)
	if err != nil {
		return err
	}
	if _, err := r.st.Insert(ctx, store.AuthUsers, rec); err != nil {
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}
