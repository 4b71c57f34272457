package impl

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"coursehub/internal/domain/entity"
	"coursehub/internal/domain/repository"
	"coursehub/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory stand-in for the database. One instance backs
// both the top-level repositories and the transaction factory so tests
// observe a single consistent state.
type memStore struct {
	users       map[uuid.UUID]*entity.User
	sessions    map[uuid.UUID]*entity.Session
	courses     map[uuid.UUID]*entity.Course
	categories  map[uuid.UUID]*entity.Category
	enrollments map[uuid.UUID]*entity.Enrollment
	payments    map[uuid.UUID]*entity.Payment
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[uuid.UUID]*entity.User),
		sessions:    make(map[uuid.UUID]*entity.Session),
		courses:     make(map[uuid.UUID]*entity.Course),
		categories:  make(map[uuid.UUID]*entity.Category),
		enrollments: make(map[uuid.UUID]*entity.Enrollment),
		payments:    make(map[uuid.UUID]*entity.Payment),
	}
}

func (s *memStore) snapshot() *memStore {
	snap := newMemStore()
	for id, user := range s.users {
		clone := *user
		snap.users[id] = &clone
	}
	for id, session := range s.sessions {
		clone := *session
		snap.sessions[id] = &clone
	}
	for id, course := range s.courses {
		clone := *course
		snap.courses[id] = &clone
	}
	for id, category := range s.categories {
		clone := *category
		snap.categories[id] = &clone
	}
	for id, enrollment := range s.enrollments {
		clone := *enrollment
		snap.enrollments[id] = &clone
	}
	for id, payment := range s.payments {
		clone := *payment
		snap.payments[id] = &clone
	}

	return snap
}

// memTxManager mimics transactional semantics: when the function fails,
// the store is restored from a snapshot taken at the start.
type memTxManager struct {
	store *memStore
}

func (m *memTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	snap := m.store.snapshot()
	if err := fn(&memFactory{store: m.store}); err != nil {
		*m.store = *snap

		return err
	}

	return nil
}

type memFactory struct {
	store *memStore
}

func (f *memFactory) UserRepo() repository.UserRepository { return &memUserRepo{store: f.store} }

func (f *memFactory) SessionRepo() repository.SessionRepository {
	return &memSessionRepo{store: f.store}
}

func (f *memFactory) CourseRepo() repository.CourseRepository { return &memCourseRepo{store: f.store} }

func (f *memFactory) CategoryRepo() repository.CategoryRepository {
	return &memCategoryRepo{store: f.store}
}

func (f *memFactory) EnrollmentRepo() repository.EnrollmentRepository {
	return &memEnrollmentRepo{store: f.store}
}

func (f *memFactory) PaymentRepo() repository.PaymentRepository {
	return &memPaymentRepo{store: f.store}
}

// --- Users ---

type memUserRepo struct {
	store *memStore
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	user, ok := r.store.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return user, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, user := range r.store.users {
		if user.Email == email {
			return user, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) FindByVerificationHash(_ context.Context, tokenHash string) (*entity.User, error) {
	for _, user := range r.store.users {
		if user.VerificationTokenHash != "" && user.VerificationTokenHash == tokenHash {
			return user, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) List(_ context.Context, offset, limit int) ([]*entity.User, int64, error) {
	users := make([]*entity.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })

	total := int64(len(users))
	if offset >= len(users) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(users) {
		end = len(users)
	}

	return users[offset:end], total, nil
}

func (r *memUserRepo) Create(_ context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	r.store.users[user.ID] = user

	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *entity.User) error {
	if _, ok := r.store.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	r.store.users[user.ID] = user

	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.store.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.store.users, id)

	return nil
}

func (r *memUserRepo) ClearExpiredVerifications(_ context.Context, now time.Time) (int64, error) {
	var cleared int64
	for _, user := range r.store.users {
		if user.VerificationTokenHash != "" && user.VerificationExpiresAt != nil && user.VerificationExpiresAt.Before(now) {
			user.VerificationTokenHash = ""
			user.VerificationExpiresAt = nil
			cleared++
		}
	}

	return cleared, nil
}

func (r *memUserRepo) AcquireSessionMutex(_ context.Context, id uuid.UUID) error {
	if _, ok := r.store.users[id]; !ok {
		return repository.ErrUserNotFound
	}

	return nil
}

// --- Sessions ---

type memSessionRepo struct {
	store *memStore
}

func (r *memSessionRepo) Create(_ context.Context, session *entity.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = time.Now()
	r.store.sessions[session.ID] = session

	return nil
}

func (r *memSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Session, error) {
	session, ok := r.store.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}

	return session, nil
}

func (r *memSessionRepo) FindByUserID(_ context.Context, userID uuid.UUID) ([]*entity.Session, error) {
	now := time.Now()
	var sessions []*entity.Session
	for _, session := range r.store.sessions {
		if session.UserID == userID && session.Usable(now) {
			sessions = append(sessions, session)
		}
	}

	return sessions, nil
}

func (r *memSessionRepo) CountActiveByUserID(_ context.Context, userID uuid.UUID) (int, error) {
	now := time.Now()
	count := 0
	for _, session := range r.store.sessions {
		if session.UserID == userID && session.Usable(now) {
			count++
		}
	}

	return count, nil
}

func (r *memSessionRepo) Update(_ context.Context, session *entity.Session) error {
	if _, ok := r.store.sessions[session.ID]; !ok {
		return repository.ErrSessionNotFound
	}
	r.store.sessions[session.ID] = session

	return nil
}

func (r *memSessionRepo) Revoke(_ context.Context, id uuid.UUID, at time.Time) error {
	session, ok := r.store.sessions[id]
	if !ok || session.Revoked() {
		return repository.ErrSessionNotFound
	}
	session.RevokedAt = &at

	return nil
}

func (r *memSessionRepo) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	for id, session := range r.store.sessions {
		if session.UserID == userID {
			delete(r.store.sessions, id)
		}
	}

	return nil
}

func (r *memSessionRepo) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	for id, session := range r.store.sessions {
		if session.RefreshExpiresAt.Before(cutoff) || (session.RevokedAt != nil && session.RevokedAt.Before(cutoff)) {
			delete(r.store.sessions, id)
			removed++
		}
	}

	return removed, nil
}

// --- Courses ---

type memCourseRepo struct {
	store *memStore
}

func (r *memCourseRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Course, error) {
	course, ok := r.store.courses[id]
	if !ok {
		return nil, repository.ErrCourseNotFound
	}

	return course, nil
}

func (r *memCourseRepo) FindBySlug(_ context.Context, slug string) (*entity.Course, error) {
	for _, course := range r.store.courses {
		if course.Slug == slug {
			return course, nil
		}
	}

	return nil, repository.ErrCourseNotFound
}

func (r *memCourseRepo) ListPublished(_ context.Context) ([]*entity.Course, error) {
	var courses []*entity.Course
	for _, course := range r.store.courses {
		if course.IsPublished {
			courses = append(courses, course)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Position < courses[j].Position })

	return courses, nil
}

func (r *memCourseRepo) ListAll(_ context.Context) ([]*entity.Course, error) {
	courses := make([]*entity.Course, 0, len(r.store.courses))
	for _, course := range r.store.courses {
		courses = append(courses, course)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Position < courses[j].Position })

	return courses, nil
}

func (r *memCourseRepo) Create(_ context.Context, course *entity.Course) error {
	for _, existing := range r.store.courses {
		if existing.Slug == course.Slug {
			return errors.New("duplicate slug")
		}
	}
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	course.CreatedAt = time.Now()
	r.store.courses[course.ID] = course

	return nil
}

func (r *memCourseRepo) Update(_ context.Context, course *entity.Course) error {
	if _, ok := r.store.courses[course.ID]; !ok {
		return repository.ErrCourseNotFound
	}
	r.store.courses[course.ID] = course

	return nil
}

func (r *memCourseRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.store.courses[id]; !ok {
		return repository.ErrCourseNotFound
	}
	delete(r.store.courses, id)

	return nil
}

func (r *memCourseRepo) UpdatePosition(_ context.Context, id uuid.UUID, position int) error {
	course, ok := r.store.courses[id]
	if !ok {
		return repository.ErrCourseNotFound
	}
	course.Position = position

	return nil
}

// --- Categories ---

type memCategoryRepo struct {
	store *memStore
}

func (r *memCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Category, error) {
	category, ok := r.store.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}

	return category, nil
}

func (r *memCategoryRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*entity.Category, error) {
	var categories []*entity.Category
	for _, id := range ids {
		if category, ok := r.store.categories[id]; ok {
			categories = append(categories, category)
		}
	}

	return categories, nil
}

func (r *memCategoryRepo) List(_ context.Context) ([]*entity.Category, error) {
	categories := make([]*entity.Category, 0, len(r.store.categories))
	for _, category := range r.store.categories {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })

	return categories, nil
}

func (r *memCategoryRepo) Create(_ context.Context, category *entity.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	r.store.categories[category.ID] = category

	return nil
}

func (r *memCategoryRepo) Update(_ context.Context, category *entity.Category) error {
	if _, ok := r.store.categories[category.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	r.store.categories[category.ID] = category

	return nil
}

func (r *memCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.store.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(r.store.categories, id)

	return nil
}

// --- Enrollments ---

type memEnrollmentRepo struct {
	store *memStore
}

func (r *memEnrollmentRepo) Create(_ context.Context, enrollment *entity.Enrollment) error {
	for _, existing := range r.store.enrollments {
		if existing.UserID == enrollment.UserID &&
			existing.CourseID == enrollment.CourseID &&
			existing.EnrollType == enrollment.EnrollType {
			return repository.ErrEnrollmentExists
		}
	}
	if enrollment.ID == uuid.Nil {
		enrollment.ID = uuid.New()
	}
	enrollment.CreatedAt = time.Now()
	r.store.enrollments[enrollment.ID] = enrollment

	return nil
}

func (r *memEnrollmentRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Enrollment, error) {
	enrollment, ok := r.store.enrollments[id]
	if !ok {
		return nil, repository.ErrEnrollmentNotFound
	}

	return enrollment, nil
}

func (r *memEnrollmentRepo) Find(_ context.Context, userID, courseID uuid.UUID, enrollType entity.EnrollType) (*entity.Enrollment, error) {
	for _, enrollment := range r.store.enrollments {
		if enrollment.UserID == userID && enrollment.CourseID == courseID && enrollment.EnrollType == enrollType {
			return enrollment, nil
		}
	}

	return nil, repository.ErrEnrollmentNotFound
}

func (r *memEnrollmentRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]*entity.Enrollment, error) {
	var enrollments []*entity.Enrollment
	for _, enrollment := range r.store.enrollments {
		if enrollment.UserID == userID && enrollment.Status == entity.EnrollmentActive {
			enrollments = append(enrollments, enrollment)
		}
	}

	return enrollments, nil
}

func (r *memEnrollmentRepo) Update(_ context.Context, enrollment *entity.Enrollment) error {
	if _, ok := r.store.enrollments[enrollment.ID]; !ok {
		return repository.ErrEnrollmentNotFound
	}
	r.store.enrollments[enrollment.ID] = enrollment

	return nil
}

func (r *memEnrollmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.store.enrollments[id]; !ok {
		return repository.ErrEnrollmentNotFound
	}
	delete(r.store.enrollments, id)

	return nil
}

// --- Payments ---

type memPaymentRepo struct {
	store *memStore
}

func (r *memPaymentRepo) Create(_ context.Context, payment *entity.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = time.Now()
	r.store.payments[payment.ID] = payment

	return nil
}

func (r *memPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Payment, error) {
	payment, ok := r.store.payments[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}

	return payment, nil
}

func (r *memPaymentRepo) FindByProviderOrderID(_ context.Context, providerOrderID string) (*entity.Payment, error) {
	for _, payment := range r.store.payments {
		if payment.ProviderOrderID == providerOrderID {
			return payment, nil
		}
	}

	return nil, repository.ErrPaymentNotFound
}

func (r *memPaymentRepo) Update(_ context.Context, payment *entity.Payment) error {
	if _, ok := r.store.payments[payment.ID]; !ok {
		return repository.ErrPaymentNotFound
	}
	r.store.payments[payment.ID] = payment

	return nil
}

func (r *memPaymentRepo) MarkPaid(_ context.Context, id uuid.UUID) (bool, error) {
	payment, ok := r.store.payments[id]
	if !ok || payment.Status != entity.PaymentPending {
		return false, nil
	}
	payment.Status = entity.PaymentPaid

	return true, nil
}

func (r *memPaymentRepo) DeleteStalePending(_ context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	for id, payment := range r.store.payments {
		if payment.Status == entity.PaymentPending && payment.CreatedAt.Before(cutoff) {
			delete(r.store.payments, id)
			removed++
		}
	}

	return removed, nil
}

// --- Domain service fakes ---

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed$" + password, nil }
func (fakeHasher) Check(password, hash string) bool     { return hash == "hashed$"+password }

// fakeTokenService signs transparent tokens so tests can assert on the
// embedded identifiers without real cryptography.
type fakeTokenService struct{}

func (fakeTokenService) GenerateAccessToken(user *entity.User, sessionID uuid.UUID) (string, error) {
	return "access|" + user.ID.String() + "|" + sessionID.String(), nil
}

func (fakeTokenService) GenerateRefreshToken(userID, sessionID uuid.UUID, jti string) (string, error) {
	return "refresh|" + userID.String() + "|" + sessionID.String() + "|" + jti, nil
}

func (fakeTokenService) ValidateAccessToken(token string) (*service.AccessClaims, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 3 || parts[0] != "access" {
		return nil, errors.New("malformed access token")
	}
	userID, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, err
	}
	sessionID, err := uuid.Parse(parts[2])
	if err != nil {
		return nil, err
	}

	return &service.AccessClaims{UserID: userID, SessionID: sessionID}, nil
}

func (fakeTokenService) ValidateRefreshToken(token string) (*service.RefreshClaims, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 4 || parts[0] != "refresh" {
		return nil, errors.New("malformed refresh token")
	}
	userID, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, err
	}
	sessionID, err := uuid.Parse(parts[2])
	if err != nil {
		return nil, err
	}

	return &service.RefreshClaims{UserID: userID, SessionID: sessionID, JTI: parts[3]}, nil
}

func (fakeTokenService) HashToken(token string) string       { return "sha$" + token }
func (fakeTokenService) AccessTokenDuration() time.Duration  { return 15 * time.Minute }
func (fakeTokenService) RefreshTokenDuration() time.Duration { return 7 * 24 * time.Hour }

// fakeDispatcher records dispatched mail tasks.
type fakeDispatcher struct {
	tasks []*service.MailTask
	err   error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, task *service.MailTask) error {
	if d.err != nil {
		return d.err
	}
	d.tasks = append(d.tasks, task)

	return nil
}

// fakeVerification records requested verifications.
type fakeVerification struct {
	requested []uuid.UUID
	err       error
}

func (v *fakeVerification) RequestVerification(_ context.Context, userID uuid.UUID) error {
	if v.err != nil {
		return v.err
	}
	v.requested = append(v.requested, userID)

	return nil
}

func (v *fakeVerification) VerifyEmail(context.Context, string) error { return nil }

// fakeCatalogCache is an in-memory CatalogCache with call counters.
type fakeCatalogCache struct {
	entry         []*entity.Course
	sets          int
	invalidations int
	getErr        error
}

func (c *fakeCatalogCache) GetPublished(context.Context) ([]*entity.Course, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}

	return c.entry, nil
}

func (c *fakeCatalogCache) SetPublished(_ context.Context, courses []*entity.Course) error {
	c.entry = courses
	c.sets++

	return nil
}

func (c *fakeCatalogCache) Invalidate(context.Context) error {
	c.entry = nil
	c.invalidations++

	return nil
}

type fakeQRCodeService struct{}

func (fakeQRCodeService) GeneratePNG(content string) ([]byte, error) {
	return []byte("png$" + content), nil
}

// fakePaymentProvider is a scriptable PaymentProvider.
type fakePaymentProvider struct {
	name        entity.PaymentProvider
	session     *service.CheckoutSession
	checkoutErr error
	event       *service.WebhookEvent
	verifyErr   error
	polled      bool
	pollErr     error
}

func (p *fakePaymentProvider) Name() entity.PaymentProvider { return p.name }

func (p *fakePaymentProvider) CreateCheckout(context.Context, *service.CheckoutIntent) (*service.CheckoutSession, error) {
	if p.checkoutErr != nil {
		return nil, p.checkoutErr
	}

	return p.session, nil
}

func (p *fakePaymentProvider) VerifyWebhook([]byte, http.Header, map[string]string) (*service.WebhookEvent, error) {
	if p.verifyErr != nil {
		return nil, p.verifyErr
	}

	return p.event, nil
}

func (p *fakePaymentProvider) PollStatus(context.Context, string) (bool, error) {
	return p.polled, p.pollErr
}

// fakeRegistry routes every checkout to a single provider.
type fakeRegistry struct {
	provider *fakePaymentProvider
	currency string
}

func (r *fakeRegistry) Get(name entity.PaymentProvider) (service.PaymentProvider, error) {
	if r.provider == nil || r.provider.name != name {
		return nil, errors.New("provider not configured")
	}

	return r.provider, nil
}

func (r *fakeRegistry) Route(string) (service.PaymentProvider, string, error) {
	if r.provider == nil {
		return nil, "", errors.New("no provider configured")
	}

	return r.provider, r.currency, nil
}

type fakeRegionResolver struct {
	country string
}

func (r *fakeRegionResolver) CountryCode(string) string { return r.country }
