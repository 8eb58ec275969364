package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sudooom.portal/internal/model"
)

// ErrAccountNotFound 账号不存在
var ErrAccountNotFound = errors.New("account not found")

// AccountRepository 账号数据访问
// 账号表由外部账号系统维护，这里只读
type AccountRepository struct {
	db *pgxpool.Pool
}

// NewAccountRepository 创建账号仓库
func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByID 通过 ID 查找账号
func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*model.Participant, error) {
	query := `
		SELECT id, display_name, email
		FROM accounts WHERE id = $1
	`
	p := &model.Participant{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.DisplayName,
		&p.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return p, nil
}

// FindByEmail 通过邮箱查找账号
// 首次发起会话前用邮箱定位对方
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*model.Participant, error) {
	query := `
		SELECT id, display_name, email
		FROM accounts WHERE email = $1
	`
	p := &model.Participant{}
	err := r.db.QueryRow(ctx, query, email).Scan(
		&p.ID,
		&p.DisplayName,
		&p.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return p, nil
}
