// Package auth 管理浏览器会话的 magic link 登录状态
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"conference-rag/internal/domain/entity"
	"conference-rag/internal/domain/repository"
	apperrors "conference-rag/pkg/errors"
	"conference-rag/pkg/logger"
	"conference-rag/pkg/metrics"
	"conference-rag/pkg/utils"
)

// 登录表单提示
const (
	MsgNotConfigured = "Please configure Supabase first (see Setup Guide)"
	MsgEmptyEmail    = "Please enter your email"
	MsgLinkSent      = "Check your email for the magic link!"

	FlashSuccess = "success"
	FlashError   = "error"

	defaultRefreshLeeway = 30 * time.Second
	defaultReadinessTTL  = 5 * time.Minute
	fallbackAuthMessage  = "Unable to reach the authentication service"
)

var (
	// ErrMissingVerifier 回调与发起登录的浏览器会话不一致
	ErrMissingVerifier = apperrors.New(apperrors.CodeAuthError, "Open the magic link in the browser you requested it from")
	// ErrMissingCallbackParams 回调既没有 code 也没有 token_hash
	ErrMissingCallbackParams = apperrors.New(apperrors.CodeAuthError, "The sign-in link is incomplete")
)

// ReadinessProber 登录后执行的就绪探测
type ReadinessProber interface {
	Probe(ctx context.Context) *entity.Readiness
}

// Callback magic link 回调参数
type Callback struct {
	Code             string
	TokenHash        string
	Type             string
	ErrorDescription string
}

// Empty 是否不是登录回调
func (c Callback) Empty() bool {
	return c.Code == "" && c.TokenHash == "" && c.ErrorDescription == ""
}

// Options 控制器配置
type Options struct {
	// RedirectURL magic link 回跳地址（页面的 origin+path）
	RedirectURL   string
	SessionTTL    time.Duration
	RefreshLeeway time.Duration
	// ReadinessTTL 全部就绪的快照在此时长内复用；存在未就绪能力时每次加载都重新探测
	ReadinessTTL  time.Duration
}

// Controller 会话控制器
type Controller struct {
	identity repository.IdentityProvider
	store    repository.SessionStore
	prober   ReadinessProber
	opts     Options
	locks    *keyedMutex
	now      func() time.Time
}

// NewController 创建会话控制器；identity 为 nil 表示后端未配置
func NewController(identity repository.IdentityProvider, store repository.SessionStore, prober ReadinessProber, opts Options) *Controller {
	if opts.RefreshLeeway <= 0 {
		opts.RefreshLeeway = defaultRefreshLeeway
	}
	if opts.ReadinessTTL <= 0 {
		opts.ReadinessTTL = defaultReadinessTTL
	}
	return &Controller{
		identity: identity,
		store:    store,
		prober:   prober,
		opts:     opts,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// Configured 身份服务是否可用
func (c *Controller) Configured() bool {
	return c.identity != nil
}

// Current 读取会话并确定当前状态，必要时刷新令牌并重新探测就绪状态
func (c *Controller) Current(ctx context.Context, sid string) (*entity.Session, error) {
	var out *entity.Session
	err := c.withSession(ctx, sid, func(sess *entity.Session) (bool, error) {
		out = sess
		if !sess.IsAuthenticated() {
			return false, nil
		}
		if c.identity == nil {
			c.dispatch(ctx, sess, entity.EventSignedOut, nil)
			return true, nil
		}

		dirty := false
		if c.expired(sess) {
			refreshed, err := c.identity.Refresh(ctx, sess.RefreshToken)
			if err != nil {
				logger.Warn(ctx, "session refresh failed", "error", err.Error())
				c.dispatch(ctx, sess, entity.EventSignedOut, nil)
				return true, nil
			}
			c.dispatch(ctx, sess, entity.EventTokenRefreshed, refreshed)
			dirty = true
		}
		if c.staleReadiness(sess) {
			c.probe(ctx, sess)
			dirty = true
		}
		return dirty, nil
	})
	return out, err
}

// RequestMagicLink 发送登录链接，返回唯一一条提示
func (c *Controller) RequestMagicLink(ctx context.Context, sid, email string) (*entity.Session, *entity.FlashMessage, error) {
	var (
		out   *entity.Session
		flash *entity.FlashMessage
	)
	err := c.withSession(ctx, sid, func(sess *entity.Session) (bool, error) {
		out = sess
		flash = c.sendMagicLink(ctx, sess, strings.TrimSpace(email))
		sess.Flash = flash
		return true, nil
	})
	return out, flash, err
}

func (c *Controller) sendMagicLink(ctx context.Context, sess *entity.Session, email string) *entity.FlashMessage {
	if c.identity == nil {
		metrics.MagicLinkRequests.WithLabelValues("not_configured").Inc()
		return &entity.FlashMessage{Text: MsgNotConfigured, Type: FlashError}
	}
	if email == "" {
		metrics.MagicLinkRequests.WithLabelValues("invalid").Inc()
		return &entity.FlashMessage{Text: MsgEmptyEmail, Type: FlashError}
	}

	verifier, err := utils.NewCodeVerifier()
	if err != nil {
		logger.Error(ctx, "failed to generate code verifier", err)
		return &entity.FlashMessage{Text: "Error: " + fallbackAuthMessage, Type: FlashError}
	}
	sess.CodeVerifier = verifier

	if err := c.identity.SendMagicLink(ctx, email, c.opts.RedirectURL, utils.CodeChallenge(verifier)); err != nil {
		metrics.MagicLinkRequests.WithLabelValues("error").Inc()
		logger.Warn(ctx, "magic link request failed", "error", err.Error())
		return &entity.FlashMessage{Text: "Error: " + authMessage(err), Type: FlashError}
	}
	metrics.MagicLinkRequests.WithLabelValues("sent").Inc()
	logger.Info(ctx, "magic link sent")
	return &entity.FlashMessage{Text: MsgLinkSent, Type: FlashSuccess}
}

// CompleteSignIn 处理 magic link 回调
// 成功后会话 ID 轮换，调用方需用返回会话的 ID 重写 cookie
func (c *Controller) CompleteSignIn(ctx context.Context, sid string, cb Callback) (*entity.Session, error) {
	if c.identity == nil {
		return nil, apperrors.ErrClientUnavailable
	}

	var out *entity.Session
	err := c.withSession(ctx, sid, func(sess *entity.Session) (bool, error) {
		out = sess
		if cb.ErrorDescription != "" {
			sess.Flash = &entity.FlashMessage{Text: "Error: " + cb.ErrorDescription, Type: FlashError}
			return true, nil
		}

		auth, err := c.exchange(ctx, sess, cb)
		if err != nil {
			sess.Flash = &entity.FlashMessage{Text: "Error: " + apperrors.UserMessage(err), Type: FlashError}
			return true, err
		}

		if err := c.store.Delete(ctx, sess.ID); err != nil {
			logger.Warn(ctx, "failed to delete pre-login session", "error", err.Error())
		}
		sess.ID = uuid.NewString()
		c.dispatch(ctx, sess, entity.EventSignedIn, auth)
		return true, nil
	})
	return out, err
}

func (c *Controller) exchange(ctx context.Context, sess *entity.Session, cb Callback) (*entity.AuthSession, error) {
	switch {
	case cb.Code != "":
		if sess.CodeVerifier == "" {
			return nil, ErrMissingVerifier
		}
		auth, err := c.identity.ExchangeCode(ctx, cb.Code, sess.CodeVerifier)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeAuthError, authMessage(err))
		}
		return c.withUser(ctx, auth)
	case cb.TokenHash != "":
		auth, err := c.identity.VerifyTokenHash(ctx, cb.TokenHash, cb.Type)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeAuthError, authMessage(err))
		}
		return c.withUser(ctx, auth)
	default:
		return nil, ErrMissingCallbackParams
	}
}

// withUser 令牌响应未携带用户时补查一次
func (c *Controller) withUser(ctx context.Context, auth *entity.AuthSession) (*entity.AuthSession, error) {
	if auth.User.ID != "" {
		return auth, nil
	}
	user, err := c.identity.GetUser(ctx, auth.AccessToken)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeAuthError, authMessage(err))
	}
	auth.User = *user
	return auth, nil
}

// SignOut 注销；后端注销结果被忽略
func (c *Controller) SignOut(ctx context.Context, sid string) (*entity.Session, error) {
	var out *entity.Session
	err := c.withSession(ctx, sid, func(sess *entity.Session) (bool, error) {
		out = sess
		if c.identity != nil && sess.AccessToken != "" {
			if err := c.identity.SignOut(ctx, sess.AccessToken); err != nil {
				logger.Debug(ctx, "backend sign-out failed", "error", err.Error())
			}
		}
		c.dispatch(ctx, sess, entity.EventSignedOut, nil)
		return true, nil
	})
	return out, err
}

// TakeFlash 取出一次性提示
func (c *Controller) TakeFlash(ctx context.Context, sid string) (*entity.FlashMessage, error) {
	var flash *entity.FlashMessage
	err := c.withSession(ctx, sid, func(sess *entity.Session) (bool, error) {
		flash = sess.TakeFlash()
		return flash != nil, nil
	})
	return flash, err
}

// dispatch 应用会话事件
func (c *Controller) dispatch(ctx context.Context, sess *entity.Session, event entity.SessionEvent, auth *entity.AuthSession) {
	metrics.SessionTransitions.WithLabelValues(string(event)).Inc()

	switch event {
	case entity.EventSignedIn:
		entering := !sess.IsAuthenticated()
		sess.SignIn(auth)
		ctx = logger.WithContext(ctx, logger.UserEmailKey, sess.User.Email)
		logger.Info(ctx, "signed in")
		if entering && c.prober != nil {
			c.probe(ctx, sess)
		}
	case entity.EventTokenRefreshed:
		if auth.User.ID == "" && sess.User != nil {
			auth.User = *sess.User
		}
		sess.SignIn(auth)
		logger.Debug(ctx, "session refreshed")
	case entity.EventSignedOut:
		sess.SignOut()
		logger.Info(ctx, "signed out")
	}
}

// probe 以会话的访问令牌探测，结果整体替换旧快照
func (c *Controller) probe(ctx context.Context, sess *entity.Session) {
	sess.Readiness = c.prober.Probe(repository.WithAccessToken(ctx, sess.AccessToken))
}

// staleReadiness 快照缺失、有未就绪能力或已超过 ReadinessTTL
func (c *Controller) staleReadiness(sess *entity.Session) bool {
	if c.prober == nil {
		return false
	}
	r := sess.Readiness
	if r == nil || !r.AllReady() {
		return true
	}
	return c.now().Sub(r.CheckedAt) >= c.opts.ReadinessTTL
}

// expired 访问令牌是否已过期（按 JWT exp，缺失时按会话记录的过期时间）
func (c *Controller) expired(sess *entity.Session) bool {
	now := c.now()
	if exp := utils.TokenExpiry(sess.AccessToken); !exp.IsZero() {
		return utils.TokenExpired(sess.AccessToken, now, c.opts.RefreshLeeway)
	}
	return !sess.ExpiresAt.IsZero() && !now.Add(c.opts.RefreshLeeway).Before(sess.ExpiresAt)
}

// withSession 在会话锁内加载、修改并按需保存会话
func (c *Controller) withSession(ctx context.Context, sid string, fn func(*entity.Session) (bool, error)) error {
	sess, unlock, err := c.acquire(ctx, sid)
	if err != nil {
		return err
	}
	defer unlock()
	ctx = logger.WithContext(ctx, logger.SessionIDKey, sess.ID)

	dirty, fnErr := fn(sess)
	if dirty {
		sess.UpdatedAt = c.now()
		if err := c.store.Save(ctx, sess, c.opts.SessionTTL); err != nil {
			return apperrors.Wrap(err, apperrors.CodeCacheError, "failed to save session")
		}
	}
	return fnErr
}

// acquire 加载已有会话并持有它的锁
// 找不到会话时创建新会话，新会话使用新 ID 而不是客户端提供的 ID；
// 新 ID 尚未下发给任何客户端，不需要加锁
func (c *Controller) acquire(ctx context.Context, sid string) (*entity.Session, func(), error) {
	if sid != "" {
		unlock := c.locks.Lock(sid)
		sess, err := c.store.Get(ctx, sid)
		if err != nil {
			unlock()
			return nil, nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to load session")
		}
		if sess != nil {
			return sess, unlock, nil
		}
		unlock()
	}
	return entity.NewSession(uuid.NewString()), func() {}, nil
}

type backendMessager interface {
	BackendMessage() string
}

// authMessage 身份服务报告的错误原文；传输层错误不暴露细节
func authMessage(err error) string {
	var bm backendMessager
	if errors.As(err, &bm) && bm.BackendMessage() != "" {
		return bm.BackendMessage()
	}
	return fallbackAuthMessage
}
