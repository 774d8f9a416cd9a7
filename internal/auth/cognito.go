package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// cognitoAPI is the slice of the Cognito client the provider uses,
// extracted so tests can substitute a fake.
type cognitoAPI interface {
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, opts ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	SignUp(ctx context.Context, in *cip.SignUpInput, opts ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in *cip.ConfirmSignUpInput, opts ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	ResendConfirmationCode(ctx context.Context, in *cip.ResendConfirmationCodeInput, opts ...func(*cip.Options)) (*cip.ResendConfirmationCodeOutput, error)
	GlobalSignOut(ctx context.Context, in *cip.GlobalSignOutInput, opts ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
	GetUser(ctx context.Context, in *cip.GetUserInput, opts ...func(*cip.Options)) (*cip.GetUserOutput, error)
}

// CognitoProvider implements Provider against an Amazon Cognito user pool
// app client (public client, no secret; the SRP-less USER_PASSWORD_AUTH
// flow must be enabled on the pool).
type CognitoProvider struct {
	api      cognitoAPI
	clientID string
}

// NewCognitoProvider builds a provider for the given region and app
// client. Requests are unsigned; these Cognito operations are public.
func NewCognitoProvider(region, clientID string) *CognitoProvider {
	client := cip.New(cip.Options{
		Region:      region,
		Credentials: aws.AnonymousCredentials{},
	})
	return &CognitoProvider{api: client, clientID: clientID}
}

func (p *CognitoProvider) Login(ctx context.Context, email, password string) (*Tokens, error) {
	out, err := p.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return nil, translateCognitoError(err)
	}
	res := out.AuthenticationResult
	if res == nil || res.IdToken == nil {
		return nil, fmt.Errorf("login: no tokens in response (challenge flow not supported)")
	}
	return &Tokens{
		Email:        email,
		IDToken:      aws.ToString(res.IdToken),
		AccessToken:  aws.ToString(res.AccessToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ObtainedAt:   time.Now(),
	}, nil
}

func (p *CognitoProvider) Register(ctx context.Context, email, password string) error {
	_, err := p.api.SignUp(ctx, &cip.SignUpInput{
		ClientId: aws.String(p.clientID),
		Username: aws.String(email),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	})
	if err != nil {
		return translateCognitoError(err)
	}
	return nil
}

func (p *CognitoProvider) ConfirmRegistration(ctx context.Context, email, code string) error {
	_, err := p.api.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	})
	if err != nil {
		return translateCognitoError(err)
	}
	return nil
}

func (p *CognitoProvider) ResendCode(ctx context.Context, email string) error {
	_, err := p.api.ResendConfirmationCode(ctx, &cip.ResendConfirmationCodeInput{
		ClientId: aws.String(p.clientID),
		Username: aws.String(email),
	})
	if err != nil {
		return translateCognitoError(err)
	}
	return nil
}

func (p *CognitoProvider) Revoke(ctx context.Context, accessToken string) error {
	_, err := p.api.GlobalSignOut(ctx, &cip.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		return translateCognitoError(err)
	}
	return nil
}

func (p *CognitoProvider) Validate(ctx context.Context, accessToken string) error {
	_, err := p.api.GetUser(ctx, &cip.GetUserInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		return translateCognitoError(err)
	}
	return nil
}

// translateCognitoError maps Cognito exception types onto the package's
// user-facing errors. Unmapped errors pass through wrapped.
func translateCognitoError(err error) error {
	var (
		notAuth      *types.NotAuthorizedException
		notConfirmed *types.UserNotConfirmedException
		notFound     *types.UserNotFoundException
		tooMany      *types.TooManyRequestsException
		limit        *types.LimitExceededException
		mismatch     *types.CodeMismatchException
		expired      *types.ExpiredCodeException
		exists       *types.UsernameExistsException
		weak         *types.InvalidPasswordException
	)
	switch {
	case errors.As(err, &notAuth):
		return ErrInvalidCredentials
	case errors.As(err, &notConfirmed):
		return ErrUserNotConfirmed
	case errors.As(err, &notFound):
		return ErrUnknownUser
	case errors.As(err, &tooMany), errors.As(err, &limit):
		return ErrRateLimited
	case errors.As(err, &mismatch):
		return ErrCodeMismatch
	case errors.As(err, &expired):
		return ErrCodeExpired
	case errors.As(err, &exists):
		return ErrUserExists
	case errors.As(err, &weak):
		return ErrWeakPassword
	default:
		return fmt.Errorf("identity provider: %w", err)
	}
}
