package rpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"ricks/crypto"
	"ricks/observability"
	"ricks/observability/logging"
)

// Signed request headers.
const (
	HeaderAddress   = "X-Ricks-Address"
	HeaderTimestamp = "X-Ricks-Timestamp"
	HeaderSignature = "X-Ricks-Signature"

	adminScope      = "admin"
	maxRequestBytes = 1 << 20 // 1 MiB
)

type contextKey string

const (
	callerContextKey contextKey = "rpc.caller"
	adminContextKey  contextKey = "rpc.admin"
)

// SigningDigest is the digest a caller signs:
// keccak(method ‖ path ‖ timestamp ‖ keccak(body)).
func SigningDigest(method, path, timestamp string, body []byte) []byte {
	return crypto.Keccak256(
		[]byte(strings.ToUpper(method)),
		[]byte(path),
		[]byte(timestamp),
		crypto.Keccak256(body),
	)
}

// SignRequest attaches the caller headers to req. The body must be supplied
// separately because it may already have been consumed into req.
func SignRequest(req *http.Request, body []byte, key *crypto.PrivateKey, now time.Time) error {
	if key == nil {
		return errors.New("rpc: signing key required")
	}
	timestamp := strconv.FormatInt(now.Unix(), 10)
	sig, err := key.Sign(SigningDigest(req.Method, req.URL.Path, timestamp, body))
	if err != nil {
		return err
	}
	req.Header.Set(HeaderAddress, key.PubKey().Address().String())
	req.Header.Set(HeaderTimestamp, timestamp)
	req.Header.Set(HeaderSignature, hex.EncodeToString(sig))
	return nil
}

func callerFrom(ctx context.Context) ([20]byte, bool) {
	addr, ok := ctx.Value(callerContextKey).([20]byte)
	return addr, ok
}

// requireSignature authenticates the caller by recovering the signer of the
// request digest.
func (s *Server) requireSignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
		if err != nil {
			writeStatus(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		if len(body) > maxRequestBytes {
			writeStatus(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		caller, err := s.verifySignature(r, body)
		if err != nil {
			reason := "signature"
			if errors.Is(err, errReplayedSignature) {
				reason = "replay"
			}
			observability.API().RecordRejection(reason)
			s.logger.Debug("rejected request signature", "path", r.URL.Path, "error", err)
			writeStatus(w, http.StatusUnauthorized, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), callerContextKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) verifySignature(r *http.Request, body []byte) ([20]byte, error) {
	claimed := strings.TrimSpace(r.Header.Get(HeaderAddress))
	timestamp := strings.TrimSpace(r.Header.Get(HeaderTimestamp))
	sigHex := strings.TrimPrefix(strings.TrimSpace(r.Header.Get(HeaderSignature)), "0x")
	if claimed == "" || timestamp == "" || sigHex == "" {
		return [20]byte{}, errors.New("missing signature headers")
	}
	addr, err := crypto.DecodeAddress(claimed)
	if err != nil {
		return [20]byte{}, fmt.Errorf("invalid caller address: %w", err)
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return [20]byte{}, errors.New("invalid timestamp")
	}
	now := s.nowFn()
	skew := now.Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > s.cfg.SignatureSkew {
		return [20]byte{}, errors.New("timestamp outside allowed skew")
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return [20]byte{}, errors.New("invalid signature encoding")
	}
	digest := SigningDigest(r.Method, r.URL.Path, timestamp, body)
	signer, err := crypto.RecoverAddress(digest, sig)
	if err != nil {
		return [20]byte{}, fmt.Errorf("invalid signature: %w", err)
	}
	if signer.Raw() != addr.Raw() {
		return [20]byte{}, errors.New("signature does not match caller")
	}
	if err := s.replay.remember(replayKey(signer.Raw(), digest), time.Unix(ts, 0).Add(s.cfg.SignatureSkew), now); err != nil {
		return [20]byte{}, err
	}
	return addr.Raw(), nil
}

// IssueAdminToken mints an HS256 admin token.
func IssueAdminToken(secret []byte, issuer, subject string, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("rpc: admin secret required")
	}
	claims := jwt.MapClaims{
		"sub":   subject,
		"scope": adminScope,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	if issuer != "" {
		claims["iss"] = issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// requireAdmin validates the bearer token on admin routes.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.cfg.JWTSecret) == 0 {
			writeStatus(w, http.StatusForbidden, "admin endpoints disabled")
			return
		}
		tokenString := extractBearer(r.Header.Get("Authorization"))
		if tokenString == "" {
			writeStatus(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		subject, err := s.parseAdminToken(tokenString)
		if err != nil {
			observability.API().RecordRejection("admin_token")
			s.logger.Warn("admin token rejected", "path", r.URL.Path,
				logging.MaskField("token", tokenString), "error", err)
			writeStatus(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), adminContextKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) parseAdminToken(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.cfg.SignatureSkew),
		jwt.WithTimeFunc(s.nowFn),
		jwt.WithExpirationRequired(),
	}
	if s.cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.JWTIssuer))
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.cfg.JWTSecret, nil
	}, opts...)
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("token invalid")
	}
	scope, _ := claims["scope"].(string)
	if !hasScope(scope, adminScope) {
		return "", errors.New("insufficient scope")
	}
	subject, _ := claims.GetSubject()
	return subject, nil
}

func hasScope(scopes, want string) bool {
	for _, scope := range strings.Fields(scopes) {
		if scope == want {
			return true
		}
	}
	return false
}

func extractBearer(header string) string {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
