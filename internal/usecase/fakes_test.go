package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"ledger-service/internal/domain"
	"ledger-service/pkg/xerrors"
)

// fakeStore is an in-memory stand-in for the postgres repositories with real
// transaction semantics: BeginTx snapshots the state and Rollback restores
// it, so atomicity assertions behave like they would against the database.
// The per-interface repository views below all share one store.
type fakeStore struct {
	mu           sync.Mutex
	users        map[int64]*domain.User
	accounts     map[int64]*domain.BankAccount
	transactions map[int64]*domain.Transaction
	audits       []*domain.UserStatusAudit
	nextID       int64

	// failure injection
	failBalanceUpdate map[int64]error
	failStatusUpdate  map[int64]error
	failTxnCreate     error
	failTxnStatus     error
	failAuditAppend   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:             make(map[int64]*domain.User),
		accounts:          make(map[int64]*domain.BankAccount),
		transactions:      make(map[int64]*domain.Transaction),
		failBalanceUpdate: make(map[int64]error),
		failStatusUpdate:  make(map[int64]error),
	}
}

func (s *fakeStore) accountRepo() *fakeAccountRepo { return &fakeAccountRepo{s} }
func (s *fakeStore) userRepo() *fakeUserRepo       { return &fakeUserRepo{s} }
func (s *fakeStore) txnRepo() *fakeTransactionRepo { return &fakeTransactionRepo{s} }
func (s *fakeStore) auditRepo() *fakeAuditRepo     { return &fakeAuditRepo{s} }

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addUser(status domain.UserStatus) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &domain.User{
		ID:       s.id(),
		Username: fmt.Sprintf("user%d", s.nextID),
		Email:    fmt.Sprintf("user%d@example.com", s.nextID),
		Phone:    fmt.Sprintf("+2547%08d", s.nextID),
		Status:   status,
	}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) addAccount(userID int64, balance string, status domain.AccountStatus) *domain.BankAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, _ := decimal.NewFromString(balance)
	a := &domain.BankAccount{
		ID:       s.id(),
		UserID:   userID,
		Balance:  b,
		Currency: "USD",
		Status:   status,
		Version:  1,
	}
	s.accounts[a.ID] = a
	return a
}

func (s *fakeStore) addTransaction(accountID, targetUserID int64, status domain.TransactionStatus) *domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &domain.Transaction{
		ID:           s.id(),
		Reference:    fmt.Sprintf("TXN-FAKE%d", s.nextID),
		Amount:       decimal.NewFromInt(10),
		Type:         domain.TransactionTypeDeposit,
		AccountID:    accountID,
		TargetUserID: targetUserID,
		Status:       status,
	}
	s.transactions[t.ID] = t
	return t
}

func (s *fakeStore) account(id int64) *domain.BankAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[id]
}

func (s *fakeStore) user(id int64) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

// --- snapshot / restore ---

type storeState struct {
	users        map[int64]*domain.User
	accounts     map[int64]*domain.BankAccount
	transactions map[int64]*domain.Transaction
	audits       []*domain.UserStatusAudit
	nextID       int64
}

func (s *fakeStore) snapshot() *storeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := &storeState{
		users:        make(map[int64]*domain.User, len(s.users)),
		accounts:     make(map[int64]*domain.BankAccount, len(s.accounts)),
		transactions: make(map[int64]*domain.Transaction, len(s.transactions)),
		audits:       append([]*domain.UserStatusAudit(nil), s.audits...),
		nextID:       s.nextID,
	}
	for id, u := range s.users {
		cp := *u
		state.users[id] = &cp
	}
	for id, a := range s.accounts {
		cp := *a
		state.accounts[id] = &cp
	}
	for id, t := range s.transactions {
		cp := *t
		state.transactions[id] = &cp
	}
	return state
}

func (s *fakeStore) restore(state *storeState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = state.users
	s.accounts = state.accounts
	s.transactions = state.transactions
	s.audits = state.audits
	s.nextID = state.nextID
}

// fakeTx satisfies pgx.Tx via embedding; only Commit and Rollback are ever
// called by the usecases.
type fakeTx struct {
	pgx.Tx
	store *fakeStore
	state *storeState
	done  bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.done = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.done {
		t.store.restore(t.state)
		t.done = true
	}
	return nil
}

// --- AccountRepository view ---

type fakeAccountRepo struct {
	s *fakeStore
}

func (r *fakeAccountRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return &fakeTx{store: r.s, state: r.s.snapshot()}, nil
}

func (r *fakeAccountRepo) Create(ctx context.Context, tx pgx.Tx, account *domain.BankAccount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	account.ID = r.s.id()
	account.Version = 1
	cp := *account
	r.s.accounts[account.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, accountID int64) (*domain.BankAccount, error) {
	return r.get(accountID)
}

func (r *fakeAccountRepo) GetByIDTx(ctx context.Context, tx pgx.Tx, accountID int64) (*domain.BankAccount, error) {
	return r.get(accountID)
}

func (r *fakeAccountRepo) get(accountID int64) (*domain.BankAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[accountID]
	if !ok {
		return nil, xerrors.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAccountRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.BankAccount, error) {
	return r.list(userID)
}

func (r *fakeAccountRepo) ListByUserTx(ctx context.Context, tx pgx.Tx, userID int64) ([]*domain.BankAccount, error) {
	return r.list(userID)
}

func (r *fakeAccountRepo) list(userID int64) ([]*domain.BankAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var accounts []*domain.BankAccount
	for _, a := range r.s.accounts {
		if a.UserID == userID {
			cp := *a
			accounts = append(accounts, &cp)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r *fakeAccountRepo) UpdateBalanceOptimistic(ctx context.Context, tx pgx.Tx, accountID int64, balance decimal.Decimal, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failBalanceUpdate[accountID]; err != nil {
		return err
	}
	a, ok := r.s.accounts[accountID]
	if !ok {
		return xerrors.ErrAccountNotFound
	}
	if a.Version != expectedVersion {
		return xerrors.ErrVersionMismatch
	}
	a.Balance = balance
	a.Version++
	return nil
}

func (r *fakeAccountRepo) UpdateStatusOptimistic(ctx context.Context, tx pgx.Tx, accountID int64, status domain.AccountStatus, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failStatusUpdate[accountID]; err != nil {
		return err
	}
	a, ok := r.s.accounts[accountID]
	if !ok {
		return xerrors.ErrAccountNotFound
	}
	if a.Version != expectedVersion {
		return xerrors.ErrVersionMismatch
	}
	a.Status = status
	a.Version++
	return nil
}

// --- UserRepository view ---

type fakeUserRepo struct {
	s *fakeStore
}

func (r *fakeUserRepo) Create(ctx context.Context, tx pgx.Tx, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == user.Email || existing.Phone == user.Phone {
			return xerrors.ErrAlreadyExists
		}
	}
	user.ID = r.s.id()
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	return r.get(userID)
}

func (r *fakeUserRepo) GetByIDTx(ctx context.Context, tx pgx.Tx, userID int64) (*domain.User, error) {
	return r.get(userID)
}

func (r *fakeUserRepo) get(userID int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, xerrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpdateStatusTx(ctx context.Context, tx pgx.Tx, userID int64, status domain.UserStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return xerrors.ErrUserNotFound
	}
	u.Status = status
	return nil
}

func (r *fakeUserRepo) HardDelete(ctx context.Context, tx pgx.Tx, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return xerrors.ErrUserNotFound
	}
	delete(r.s.users, userID)
	return nil
}

// --- TransactionRepository view ---

type fakeTransactionRepo struct {
	s *fakeStore
}

func (r *fakeTransactionRepo) Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	if err := txn.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failTxnCreate != nil {
		return r.s.failTxnCreate
	}
	txn.ID = r.s.id()
	cp := *txn
	r.s.transactions[txn.ID] = &cp
	return nil
}

func (r *fakeTransactionRepo) GetByID(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.transactions[transactionID]
	if !ok {
		return nil, xerrors.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTransactionRepo) ListByAccount(ctx context.Context, accountID int64) ([]*domain.Transaction, error) {
	return r.list(accountID)
}

func (r *fakeTransactionRepo) ListByAccountTx(ctx context.Context, tx pgx.Tx, accountID int64) ([]*domain.Transaction, error) {
	return r.list(accountID)
}

func (r *fakeTransactionRepo) list(accountID int64) ([]*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var txns []*domain.Transaction
	for _, t := range r.s.transactions {
		if t.AccountID == accountID {
			cp := *t
			txns = append(txns, &cp)
		}
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].ID < txns[j].ID })
	return txns, nil
}

func (r *fakeTransactionRepo) UpdateStatusTx(ctx context.Context, tx pgx.Tx, transactionIDs []int64, status domain.TransactionStatus) error {
	if len(transactionIDs) == 0 {
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failTxnStatus != nil {
		return r.s.failTxnStatus
	}
	for _, id := range transactionIDs {
		t, ok := r.s.transactions[id]
		if !ok {
			return &xerrors.ConsistencyError{Entity: "transaction", ID: id, Detail: "cascade target missing"}
		}
		t.Status = status
	}
	return nil
}

// --- AuditRepository view ---

type fakeAuditRepo struct {
	s *fakeStore
}

func (r *fakeAuditRepo) Append(ctx context.Context, tx pgx.Tx, audit *domain.UserStatusAudit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAuditAppend != nil {
		return r.s.failAuditAppend
	}
	audit.ID = r.s.id()
	cp := *audit
	r.s.audits = append(r.s.audits, &cp)
	return nil
}

func (r *fakeAuditRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.UserStatusAudit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var audits []*domain.UserStatusAudit
	for _, a := range r.s.audits {
		if a.UserID == userID {
			cp := *a
			audits = append(audits, &cp)
		}
	}
	return audits, nil
}
