package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/roadwatch-backend/internal/data/repos"
	types "github.com/yungbote/roadwatch-backend/internal/domain"
	"github.com/yungbote/roadwatch-backend/internal/platform/dbctx"
	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

const MinPasswordLength = 8

type RegisterInput struct {
	Nickname string
	Email    string
	Password string
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	RegisterAdmin(ctx context.Context, in RegisterInput) (*types.User, error)
	Authenticate(ctx context.Context, email, password string) (*types.User, error)
	GetByID(ctx context.Context, id int64) (*types.User, error)
	Actor(ctx context.Context, userID int64) (Actor, error)
}

type userService struct {
	log        *logger.Logger
	users      repos.UserRepo
	roles      repos.RoleRepo
	bcryptCost int
}

// NewUserService hashes with bcryptCost, or bcrypt.DefaultCost when zero.
func NewUserService(log *logger.Logger, users repos.UserRepo, roles repos.RoleRepo, bcryptCost int) UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{
		log:        log.With("service", "UserService"),
		users:      users,
		roles:      roles,
		bcryptCost: bcryptCost,
	}
}

func (us *userService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	return us.register(ctx, "UserService.Register", in, types.RoleUser)
}

func (us *userService) RegisterAdmin(ctx context.Context, in RegisterInput) (*types.User, error) {
	return us.register(ctx, "UserService.RegisterAdmin", in, types.RoleAdmin)
}

func (us *userService) register(ctx context.Context, op string, in RegisterInput, roleName string) (user *types.User, err error) {
	ctx, span := startSpan(ctx, op, attribute.String("role", roleName))
	defer func() { finishSpan(span, err) }()

	nickname := strings.TrimSpace(in.Nickname)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	switch {
	case nickname == "":
		return nil, types.ValidationError(op, "nickname is required")
	case !strings.Contains(email, "@"):
		return nil, types.ValidationError(op, "email %q is not valid", email)
	case len(in.Password) < MinPasswordLength:
		return nil, types.ValidationError(op, "password must be at least %d characters", MinPasswordLength)
	}

	dbc := dbctx.Context{Ctx: ctx}
	exists, err := us.users.EmailExists(dbc, email)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	if exists {
		return nil, types.Conflict(op, "email already registered")
	}

	role, err := us.roles.GetByName(dbc, roleName)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	if role == nil {
		return nil, types.NewError(types.CodeInternal, op, "role "+roleName+" is not bootstrapped", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), us.bcryptCost)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	user = &types.User{
		Nickname: nickname,
		Email:    email,
		Password: string(hash),
		RoleID:   role.ID,
	}
	// EmailExists races with concurrent registrations; the unique index decides
	if err := us.users.Create(dbc, user); err != nil {
		if types.IsCode(err, types.CodeConflict) {
			return nil, types.Conflict(op, "email already registered")
		}
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	us.log.Info("user registered", "user", user.ID, "role", roleName)
	return user, nil
}

func (us *userService) Authenticate(ctx context.Context, email, password string) (user *types.User, err error) {
	const op = "UserService.Authenticate"
	ctx, span := startSpan(ctx, op)
	defer func() { finishSpan(span, err) }()

	user, err = us.users.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	if user == nil {
		return nil, types.Unauthorized(op, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, types.Unauthorized(op, "invalid credentials")
		}
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	return user, nil
}

func (us *userService) GetByID(ctx context.Context, id int64) (*types.User, error) {
	const op = "UserService.GetByID"
	user, err := us.users.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	if user == nil {
		return nil, types.NotFound(op, "user %d not found", id)
	}
	return user, nil
}

func (us *userService) Actor(ctx context.Context, userID int64) (Actor, error) {
	const op = "UserService.Actor"
	user, err := us.GetByID(ctx, userID)
	if err != nil {
		return Actor{}, err
	}
	role, err := us.roles.GetByID(dbctx.Context{Ctx: ctx}, user.RoleID)
	if err != nil {
		return Actor{}, types.Wrap(types.CodeInternal, op, err)
	}
	return Actor{UserID: user.ID, Admin: role != nil && role.Name == types.RoleAdmin}, nil
}
