package graph

import (
	"context"
	"database/sql"
	"strings"

	"github.com/juju/errors"

	"github.com/ray-remotestate/restro/database/dbhelper"
	"github.com/ray-remotestate/restro/models"
	"github.com/ray-remotestate/restro/utils"
)

var (
	errCredentialsRequired = errors.New("email and password are required")
	errInvalidCredentials  = errors.New("invalid credentials")
)

type authPayloadResolver struct {
	token string
	email string
}

func (r *authPayloadResolver) Token() string { return r.token }
func (r *authPayloadResolver) Email() string { return r.email }

// Login checks the admin credentials and issues a signed access token.
// Unknown emails and wrong passwords fail the same way.
func (r *Resolver) Login(ctx context.Context, args struct {
	Email    string
	Password string
}) (*authPayloadResolver, error) {
	email := strings.TrimSpace(args.Email)
	if email == "" || args.Password == "" {
		return nil, errCredentialsRequired
	}

	admin, err := dbhelper.GetAdminByEmail(ctx, r.db, email)
	if err == sql.ErrNoRows {
		return nil, errInvalidCredentials
	} else if err != nil {
		return nil, errors.Annotate(err, "fetching admin")
	}
	if !utils.CheckPassword(admin.Password, args.Password) {
		r.log.WithField("email", email).Info("login rejected")
		return nil, errInvalidCredentials
	}

	token, err := utils.GenerateAccessToken(r.secret, admin.ID, admin.Email, []string{string(models.RoleAdmin)})
	if err != nil {
		return nil, errors.Annotate(err, "could not generate token")
	}
	return &authPayloadResolver{token: token, email: admin.Email}, nil
}
