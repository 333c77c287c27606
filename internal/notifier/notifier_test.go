package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/shonsungje/hotdeal-notifier/internal/models"
)

type mockMessenger struct {
	sent     []Message
	tokens   []string
	failFor  map[string]error
	sendErr  error
}

func (m *mockMessenger) Send(_ context.Context, token string, msg Message) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	if err, ok := m.failFor[token]; ok {
		return err
	}
	m.tokens = append(m.tokens, token)
	m.sent = append(m.sent, msg)
	return nil
}

type mockDirectory struct {
	users map[string]models.User
	err   error
}

func (m *mockDirectory) UsersByIDs(_ context.Context, ids []string) (map[string]models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]models.User)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func match(userID, keyword, title string) models.Match {
	return models.Match{
		Deal:    models.DealRecord{Site: models.SitePpomppu, OriginID: "1", Title: title, URL: "https://example.com/1"},
		UserID:  userID,
		Keyword: keyword,
	}
}

func TestNotify_DeliversPerMatch(t *testing.T) {
	messenger := &mockMessenger{}
	dir := &mockDirectory{users: map[string]models.User{
		"userA": {ID: "userA", FCMToken: "tok-a"},
		"userB": {ID: "userB", FCMToken: "tok-b"},
	}}

	n := New(messenger, dir)
	n.Notify(context.Background(), []models.Match{
		match("userA", "4070", "RTX 4070 특가"),
		match("userB", "버즈", "갤럭시 버즈 특가"),
	})

	if len(messenger.sent) != 2 {
		t.Fatalf("Expected 2 deliveries, got %d", len(messenger.sent))
	}
	if messenger.sent[0].Title != "🔥 핫딜 알림: [4070]" {
		t.Errorf("Message title = %q", messenger.sent[0].Title)
	}
	if messenger.sent[0].Body != "RTX 4070 특가" {
		t.Errorf("Message body = %q", messenger.sent[0].Body)
	}
	if messenger.sent[0].Link != "https://example.com/1" {
		t.Errorf("Message link = %q", messenger.sent[0].Link)
	}
}

func TestNotify_SkipsUsersWithoutToken(t *testing.T) {
	messenger := &mockMessenger{}
	dir := &mockDirectory{users: map[string]models.User{
		"userA": {ID: "userA"}, // no token
	}}

	n := New(messenger, dir)
	n.Notify(context.Background(), []models.Match{match("userA", "4070", "RTX 4070 특가")})

	if len(messenger.sent) != 0 {
		t.Fatalf("Expected 0 delivery attempts for tokenless user, got %d", len(messenger.sent))
	}
}

func TestNotify_FailureDoesNotAffectSiblings(t *testing.T) {
	messenger := &mockMessenger{failFor: map[string]error{
		"tok-a": errors.New("registration token expired"),
	}}
	dir := &mockDirectory{users: map[string]models.User{
		"userA": {ID: "userA", FCMToken: "tok-a"},
		"userB": {ID: "userB", FCMToken: "tok-b"},
	}}

	n := New(messenger, dir)
	n.Notify(context.Background(), []models.Match{
		match("userA", "4070", "RTX 4070 특가"),
		match("userB", "4070", "RTX 4070 특가"),
	})

	if len(messenger.sent) != 1 || messenger.tokens[0] != "tok-b" {
		t.Fatalf("Sibling delivery should survive a failed one; sent=%v", messenger.tokens)
	}
}

func TestNotify_UnavailableMessengerStopsQuietly(t *testing.T) {
	messenger := &mockMessenger{sendErr: ErrUnavailable}
	dir := &mockDirectory{users: map[string]models.User{
		"userA": {ID: "userA", FCMToken: "tok-a"},
		"userB": {ID: "userB", FCMToken: "tok-b"},
	}}

	n := New(messenger, dir)
	// Must not panic and must not keep hammering an unconfigured capability.
	n.Notify(context.Background(), []models.Match{
		match("userA", "4070", "RTX 4070 특가"),
		match("userB", "4070", "RTX 4070 특가"),
	})

	if len(messenger.sent) != 0 {
		t.Fatalf("Expected 0 successful deliveries, got %d", len(messenger.sent))
	}
}

func TestNotify_DirectoryErrorAbortsWithoutPanic(t *testing.T) {
	messenger := &mockMessenger{}
	dir := &mockDirectory{err: errors.New("firestore unavailable")}

	n := New(messenger, dir)
	n.Notify(context.Background(), []models.Match{match("userA", "4070", "RTX 4070 특가")})

	if len(messenger.sent) != 0 {
		t.Fatalf("Expected 0 deliveries when directory fails, got %d", len(messenger.sent))
	}
}

func TestFCMMessenger_UnavailableWithoutCredentials(t *testing.T) {
	m := NewFCM("")
	err := m.Send(context.Background(), "tok", Message{Title: "t"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Send without credentials = %v, want ErrUnavailable", err)
	}
}
