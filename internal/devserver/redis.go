package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zuvy/assess/internal/assessment"
)

const keyPrefix = "zuvy:"

// RedisRepository stores state as JSON values under zuvy:* keys.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository connects to url (redis://...) and pings the server.
func NewRedisRepository(ctx context.Context, url string) (*RedisRepository, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisRepository{client: client}, nil
}

func key(parts ...string) string {
	return keyPrefix + strings.Join(parts, ":")
}

func (r *RedisRepository) put(ctx context.Context, k string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", k, err)
	}
	if err := r.client.Set(ctx, k, data, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", k, err)
	}
	return nil
}

func (r *RedisRepository) get(ctx context.Context, k string, v any) error {
	data, err := r.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", k, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", k, err)
	}
	return nil
}

func (r *RedisRepository) NextID(ctx context.Context, kind string) (int, error) {
	n, err := r.client.Incr(ctx, key("seq", kind)).Result()
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", kind, err)
	}
	return int(n), nil
}

func (r *RedisRepository) UpsertUser(ctx context.Context, u assessment.User) (assessment.User, error) {
	existing, err := r.UserByEmail(ctx, u.Email)
	switch {
	case err == nil:
		if u.Name != "" {
			existing.Name = u.Name
		}
		existing.RolesList = u.RolesList
		u = *existing
	case errors.Is(err, ErrNotFound):
		if u.ID == "" {
			id, err := r.NextID(ctx, "user")
			if err != nil {
				return assessment.User{}, err
			}
			u.ID = strconv.Itoa(id)
		}
	default:
		return assessment.User{}, err
	}
	return u, r.put(ctx, key("user", strings.ToLower(u.Email)), u, 0)
}

func (r *RedisRepository) UserByEmail(ctx context.Context, email string) (*assessment.User, error) {
	var u assessment.User
	if err := r.get(ctx, key("user", strings.ToLower(email)), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *RedisRepository) SaveAssessment(ctx context.Context, a assessment.Assessment) error {
	if err := r.put(ctx, key("assessment", strconv.Itoa(a.ID)), a, 0); err != nil {
		return err
	}
	return r.client.SAdd(ctx, key("assessments"), a.ID).Err()
}

func (r *RedisRepository) Assessment(ctx context.Context, id int) (*assessment.Assessment, error) {
	var a assessment.Assessment
	if err := r.get(ctx, key("assessment", strconv.Itoa(id)), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *RedisRepository) Assessments(ctx context.Context, bootcampID int) ([]assessment.Assessment, error) {
	ids, err := r.client.SMembers(ctx, key("assessments")).Result()
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	out := make([]assessment.Assessment, 0, len(ids))
	for _, id := range ids {
		var a assessment.Assessment
		if err := r.get(ctx, key("assessment", id), &a); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		if bootcampID <= 0 || a.BootcampID == bootcampID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *RedisRepository) SaveQuestions(ctx context.Context, assessmentID int, set QuestionSet) error {
	return r.put(ctx, key("questions", strconv.Itoa(assessmentID)), set, 0)
}

func (r *RedisRepository) Questions(ctx context.Context, assessmentID int) (*QuestionSet, error) {
	var set QuestionSet
	if err := r.get(ctx, key("questions", strconv.Itoa(assessmentID)), &set); err != nil {
		return nil, err
	}
	return &set, nil
}

func submissionKey(userID string, assessmentID int) string {
	return key("submission", userID, strconv.Itoa(assessmentID))
}

func (r *RedisRepository) SaveSubmission(ctx context.Context, rec SubmissionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	ok, err := r.client.SetNX(ctx, submissionKey(rec.UserID, rec.Submission.AIAssessmentID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("save submission: %w", err)
	}
	if !ok {
		return ErrAlreadySubmitted
	}
	return nil
}

func (r *RedisRepository) Submitted(ctx context.Context, userID string, assessmentID int) (bool, error) {
	n, err := r.client.Exists(ctx, submissionKey(userID, assessmentID)).Result()
	if err != nil {
		return false, fmt.Errorf("check submission: %w", err)
	}
	return n > 0, nil
}

func (r *RedisRepository) SaveEvaluations(ctx context.Context, userID string, assessmentID int, evals []assessment.Evaluation) error {
	return r.put(ctx, key("evaluations", userID, strconv.Itoa(assessmentID)), evals, 0)
}

func (r *RedisRepository) Evaluations(ctx context.Context, userID string, assessmentID int) ([]assessment.Evaluation, error) {
	var evals []assessment.Evaluation
	if err := r.get(ctx, key("evaluations", userID, strconv.Itoa(assessmentID)), &evals); err != nil {
		return nil, err
	}
	return evals, nil
}

func (r *RedisRepository) RevokeToken(ctx context.Context, id string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, key("revoked", id), 1, ttl).Err()
}

func (r *RedisRepository) Revoked(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, key("revoked", id)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
