package lockservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	issueguard "github.com/mccescario1995/issueguard"
)

// ErrNotHolder is returned by Heartbeat when the lease is held by someone
// else or has already expired.
var ErrNotHolder = errors.New("not the lock holder")

// ErrOwnerRequired is returned when an identity-bearing call carries a zero
// user id.
var ErrOwnerRequired = errors.New("lock owner identity required")

const (
	acquireStatusTaken    int64 = 0
	acquireStatusAcquired int64 = 1
)

const acquireScript = `
local owner = redis.call("HGET", KEYS[1], "userId")
if owner == false then
  redis.call("HSET", KEYS[1], "userId", ARGV[1], "username", ARGV[2], "lockedAt", ARGV[3])
  redis.call("PEXPIRE", KEYS[1], ARGV[4])
  return 1
end
if owner == ARGV[1] then
  redis.call("PEXPIRE", KEYS[1], ARGV[4])
  return 1
end
return 0
`

const heartbeatScript = `
local owner = redis.call("HGET", KEYS[1], "userId")
if owner == ARGV[1] then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
  return 1
end
return 0
`

const releaseScript = `
local owner = redis.call("HGET", KEYS[1], "userId")
if owner == ARGV[1] then
  redis.call("DEL", KEYS[1])
  return 1
end
return 0
`

var (
	acquireLua   = redis.NewScript(acquireScript)
	heartbeatLua = redis.NewScript(heartbeatScript)
	releaseLua   = redis.NewScript(releaseScript)
)

// Redis implements [issueguard.LockService] on a Redis lease per issue.
//
// Redis instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Redis struct {
	client redis.UniversalClient
	prefix string
	lease  time.Duration
}

// NewRedis describes the newredis operation and its observable behavior.
//
// NewRedis may return an error when input validation fails. The lease must
// exceed the heartbeat interval the clients renew with.
func NewRedis(client redis.UniversalClient, prefix string, lease time.Duration) (*Redis, error) {
	if client == nil {
		return nil, errors.New("nil redis client")
	}
	if lease <= 0 {
		return nil, errors.New("lease must be positive")
	}
	if prefix == "" {
		prefix = "ig"
	}
	return &Redis{client: client, prefix: prefix, lease: lease}, nil
}

func (r *Redis) key(issueID int64) string {
	return fmt.Sprintf("%s:lock:%d", r.prefix, issueID)
}

// Status describes the status operation and its observable behavior.
//
// Status may return an error when the backend is unreachable.
func (r *Redis) Status(ctx context.Context, issueID int64) (issueguard.LockStatus, error) {
	fields, err := r.client.HGetAll(ctx, r.key(issueID)).Result()
	if err != nil {
		return issueguard.LockStatus{}, err
	}
	return statusFromFields(fields)
}

// Acquire takes the lease when the issue is unlocked, or refreshes it when
// the caller already holds it. A lease held by anyone else yields a
// [*issueguard.ConflictError] carrying the current holder.
func (r *Redis) Acquire(ctx context.Context, issueID int64, owner issueguard.LockHolder) error {
	if owner.UserID == 0 {
		return ErrOwnerRequired
	}

	lockedAt := time.Now().UTC()
	res, err := acquireLua.Run(ctx, r.client, []string{r.key(issueID)},
		strconv.FormatInt(owner.UserID, 10),
		owner.Username,
		lockedAt.Format(time.RFC3339Nano),
		r.lease.Milliseconds(),
	).Int64()
	if err != nil {
		return err
	}
	if res == acquireStatusAcquired {
		return nil
	}

	// Lost the race: report the true holder. If the lease vanished between
	// the script and this read, let the caller fall back to a status fetch.
	status, err := r.Status(ctx, issueID)
	if err != nil {
		return err
	}
	if !status.IsLocked {
		return errors.New("lock state changed during acquire")
	}
	return &issueguard.ConflictError{Status: status}
}

// Release drops the lease if the caller holds it. Releasing a lease held by
// someone else, or not held at all, is a no-op: redundant releases are an
// accepted cost of the clients' eager-release policy.
func (r *Redis) Release(ctx context.Context, issueID int64, owner issueguard.LockHolder) error {
	if owner.UserID == 0 {
		return nil
	}
	return releaseLua.Run(ctx, r.client, []string{r.key(issueID)},
		strconv.FormatInt(owner.UserID, 10),
	).Err()
}

// Heartbeat renews the lease if the caller holds it, and reports
// [ErrNotHolder] otherwise so the client can log the anomaly.
func (r *Redis) Heartbeat(ctx context.Context, issueID int64, owner issueguard.LockHolder) error {
	if owner.UserID == 0 {
		return ErrOwnerRequired
	}

	res, err := heartbeatLua.Run(ctx, r.client, []string{r.key(issueID)},
		strconv.FormatInt(owner.UserID, 10),
		r.lease.Milliseconds(),
	).Int64()
	if err != nil {
		return err
	}
	if res != 1 {
		return ErrNotHolder
	}
	return nil
}

func statusFromFields(fields map[string]string) (issueguard.LockStatus, error) {
	if len(fields) == 0 {
		return issueguard.Unlocked(), nil
	}

	userID, err := strconv.ParseInt(fields["userId"], 10, 64)
	if err != nil {
		return issueguard.LockStatus{}, fmt.Errorf("corrupt lock record: %w", err)
	}

	status := issueguard.LockStatus{
		IsLocked: true,
		LockedBy: &issueguard.LockHolder{
			UserID:   userID,
			Username: fields["username"],
		},
	}
	if at, err := time.Parse(time.RFC3339Nano, fields["lockedAt"]); err == nil {
		status.LockedAt = &at
	}
	return status, nil
}
