package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"boigordo/internal/apierror"
	"boigordo/internal/model"
	"boigordo/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Purchases ────────────────────────────────────────────────────────────────

type stubPurchaseRepo struct {
	lots      map[uuid.UUID]*model.CattlePurchase
	herdErr   error
	healthAdd map[uuid.UUID]decimal.Decimal
}

var _ repository.PurchaseRepository = (*stubPurchaseRepo)(nil)

func newStubPurchaseRepo() *stubPurchaseRepo {
	return &stubPurchaseRepo{
		lots:      map[uuid.UUID]*model.CattlePurchase{},
		healthAdd: map[uuid.UUID]decimal.Decimal{},
	}
}

func (r *stubPurchaseRepo) DB() *gorm.DB { return nil }

func (r *stubPurchaseRepo) Create(_ context.Context, p *model.CattlePurchase) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.lots[p.ID] = p
	return nil
}

func (r *stubPurchaseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CattlePurchase, error) {
	p, ok := r.lots[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPurchaseRepo) HerdTotals(_ context.Context, cycleID *uuid.UUID) (repository.HerdTotals, error) {
	if r.herdErr != nil {
		return repository.HerdTotals{}, r.herdErr
	}
	var t repository.HerdTotals
	for _, p := range r.lots {
		if cycleID != nil && (p.CycleID == nil || *p.CycleID != *cycleID) {
			continue
		}
		t.InitialQuantity += int64(p.InitialQuantity)
		t.CurrentQuantity += int64(p.CurrentQuantity)
		t.DeathCount += int64(p.DeathCount)
	}
	return t, nil
}

func (r *stubPurchaseRepo) RecordDeathsTx(_ *gorm.DB, id uuid.UUID, n int) error {
	p, ok := r.lots[id]
	if !ok || p.CurrentQuantity < n {
		return apierror.InsufficientQuantity("lot %s has fewer than %d animals", id, n)
	}
	p.CurrentQuantity -= n
	p.DeathCount += n
	return nil
}

func (r *stubPurchaseRepo) AddHealthCostTx(_ *gorm.DB, id uuid.UUID, cost decimal.Decimal) error {
	p, ok := r.lots[id]
	if !ok {
		return apierror.NotFound("lot %s not found", id)
	}
	p.HealthCost = p.HealthCost.Add(cost)
	if p.TotalCost != nil {
		t := p.TotalCost.Add(cost)
		p.TotalCost = &t
	}
	r.healthAdd[id] = r.healthAdd[id].Add(cost)
	return nil
}

func (r *stubPurchaseRepo) UpdateWeightTx(_ *gorm.DB, id uuid.UUID, avg, current float64) error {
	p, ok := r.lots[id]
	if !ok {
		return apierror.NotFound("lot %s not found", id)
	}
	p.AverageWeight = &avg
	p.CurrentWeight = current
	return nil
}

// ── Pens ─────────────────────────────────────────────────────────────────────

type stubPenRepo struct {
	pens      map[uuid.UUID]*model.Pen
	links     []*model.LotPenLink
	purchases *stubPurchaseRepo
}

var _ repository.PenRepository = (*stubPenRepo)(nil)

func newStubPenRepo(purchases *stubPurchaseRepo) *stubPenRepo {
	return &stubPenRepo{pens: map[uuid.UUID]*model.Pen{}, purchases: purchases}
}

func (r *stubPenRepo) DB() *gorm.DB { return nil }

func (r *stubPenRepo) Create(_ context.Context, p *model.Pen) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.pens[p.ID] = p
	return nil
}

func (r *stubPenRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Pen, error) {
	p, ok := r.pens[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPenRepo) LockTx(_ *gorm.DB, id uuid.UUID) (*model.Pen, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubPenRepo) CreateLink(_ context.Context, l *model.LotPenLink) error {
	return r.CreateLinkTx(nil, l)
}

func (r *stubPenRepo) CreateLinkTx(_ *gorm.DB, l *model.LotPenLink) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	for _, existing := range r.links {
		if existing.Status == model.LinkStatusActive && existing.PurchaseID == l.PurchaseID && existing.PenID == l.PenID {
			return apierror.Conflict("duplicate active allocation")
		}
	}
	r.links = append(r.links, l)
	return nil
}

func (r *stubPenRepo) ListActiveLinks(ctx context.Context, penID uuid.UUID) ([]model.LotPenLink, error) {
	return r.ListActiveLinksTx(nil, penID)
}

func (r *stubPenRepo) ListActiveLinksTx(_ *gorm.DB, penID uuid.UUID) ([]model.LotPenLink, error) {
	var out []model.LotPenLink
	for _, l := range r.links {
		if l.PenID != penID || l.Status != model.LinkStatusActive {
			continue
		}
		cp := *l
		cp.Purchase = r.purchases.lots[l.PurchaseID]
		out = append(out, cp)
	}
	return out, nil
}

func (r *stubPenRepo) FindActiveLinkTx(_ *gorm.DB, purchaseID, penID uuid.UUID) (*model.LotPenLink, error) {
	for _, l := range r.links {
		if l.PurchaseID == purchaseID && l.PenID == penID && l.Status == model.LinkStatusActive {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPenRepo) link(id uuid.UUID) *model.LotPenLink {
	for _, l := range r.links {
		if l.ID == id {
			return l
		}
	}
	return nil
}

func (r *stubPenRepo) DecrementLinkTx(_ *gorm.DB, linkID uuid.UUID, n int) error {
	l := r.link(linkID)
	if l == nil || l.Quantity < n {
		return apierror.InsufficientQuantity("allocation %s has fewer than %d animals", linkID, n)
	}
	l.Quantity -= n
	return nil
}

func (r *stubPenRepo) IncrementLinkTx(_ *gorm.DB, linkID uuid.UUID, n int) error {
	l := r.link(linkID)
	if l == nil {
		return errors.New("allocation not found")
	}
	l.Quantity += n
	return nil
}

func (r *stubPenRepo) occupancy(penID uuid.UUID) int {
	total := 0
	for _, l := range r.links {
		if l.PenID == penID && l.Status == model.LinkStatusActive {
			total += l.Quantity
		}
	}
	return total
}

// ── Interventions ────────────────────────────────────────────────────────────

type stubInterventionRepo struct {
	health    []model.HealthIntervention
	movements []model.PenMovement
	weights   []model.WeightReading
	countErr  error
}

var _ repository.InterventionRepository = (*stubInterventionRepo)(nil)

func (r *stubInterventionRepo) CreateHealthTx(_ *gorm.DB, h *model.HealthIntervention) error {
	r.health = append(r.health, *h)
	return nil
}

func (r *stubInterventionRepo) CreateMovementTx(_ *gorm.DB, m *model.PenMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubInterventionRepo) CreateWeightReadingTx(_ *gorm.DB, w *model.WeightReading) error {
	r.weights = append(r.weights, *w)
	return nil
}

func (r *stubInterventionRepo) LastWeightReading(_ context.Context, purchaseID, penID uuid.UUID) (*model.WeightReading, error) {
	var last *model.WeightReading
	for i := range r.weights {
		w := &r.weights[i]
		if w.PurchaseID != purchaseID || w.PenID != penID {
			continue
		}
		if last == nil || w.WeighingDate.After(last.WeighingDate) {
			last = w
		}
	}
	if last == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *last
	return &cp, nil
}

func inRange(f repository.InterventionFilter, t time.Time) bool {
	if f.From == nil || f.To == nil {
		return true
	}
	return !t.Before(*f.From) && !t.After(*f.To)
}

func (r *stubInterventionRepo) ListHealth(_ context.Context, f repository.InterventionFilter) ([]model.HealthIntervention, error) {
	var out []model.HealthIntervention
	for _, h := range r.health {
		if f.PurchaseID != nil && h.PurchaseID != *f.PurchaseID {
			continue
		}
		if f.PenID != nil && h.PenID != *f.PenID {
			continue
		}
		if inRange(f, h.ApplicationDate) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *stubInterventionRepo) ListMovements(_ context.Context, f repository.InterventionFilter) ([]model.PenMovement, error) {
	var out []model.PenMovement
	for _, m := range r.movements {
		if f.PurchaseID != nil && m.PurchaseID != *f.PurchaseID {
			continue
		}
		if f.PenID != nil && m.FromPenID != *f.PenID && m.ToPenID != *f.PenID {
			continue
		}
		if inRange(f, m.MovementDate) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubInterventionRepo) ListWeightReadings(_ context.Context, f repository.InterventionFilter) ([]model.WeightReading, error) {
	var out []model.WeightReading
	for _, w := range r.weights {
		if f.PurchaseID != nil && w.PurchaseID != *f.PurchaseID {
			continue
		}
		if f.PenID != nil && w.PenID != *f.PenID {
			continue
		}
		if inRange(f, w.WeighingDate) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *stubInterventionRepo) CountHealth(_ context.Context, _ *uuid.UUID) (int64, error) {
	return int64(len(r.health)), r.countErr
}

func (r *stubInterventionRepo) CountMovements(_ context.Context, _ *uuid.UUID) (int64, error) {
	return int64(len(r.movements)), r.countErr
}

func (r *stubInterventionRepo) CountWeightReadings(_ context.Context, _ *uuid.UUID) (int64, error) {
	return int64(len(r.weights)), r.countErr
}

func (r *stubInterventionRepo) RecentGMDs(_ context.Context, _ *uuid.UUID, limit int) ([]float64, error) {
	sorted := append([]model.WeightReading(nil), r.weights...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].WeighingDate.After(sorted[j].WeighingDate) })
	var out []float64
	for _, w := range sorted {
		if w.GMD != nil && len(out) < limit {
			out = append(out, *w.GMD)
		}
	}
	return out, nil
}

// ── Mortality ────────────────────────────────────────────────────────────────

type stubMortalityRepo struct {
	records  []model.MortalityRecord
	analyses []model.MortalityAnalysis
}

var _ repository.MortalityRepository = (*stubMortalityRepo)(nil)

func (r *stubMortalityRepo) CreateRecordTx(_ *gorm.DB, rec *model.MortalityRecord) error {
	r.records = append(r.records, *rec)
	return nil
}

func (r *stubMortalityRepo) CreateAnalysisTx(_ *gorm.DB, a *model.MortalityAnalysis) error {
	r.analyses = append(r.analyses, *a)
	return nil
}

func (r *stubMortalityRepo) MarkIntegratedTx(_ *gorm.DB, id uuid.UUID) error {
	for i := range r.records {
		if r.records[i].ID == id {
			r.records[i].FinancialIntegrated = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubMortalityRepo) List(_ context.Context, f repository.InterventionFilter) ([]model.MortalityRecord, error) {
	var out []model.MortalityRecord
	for _, rec := range r.records {
		if f.PenID != nil && rec.PenID != *f.PenID {
			continue
		}
		if inRange(f, rec.DeathDate) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *stubMortalityRepo) Aggregate(_ context.Context, _ *uuid.UUID) (repository.MortalityAggregate, error) {
	agg := repository.MortalityAggregate{TotalLoss: decimal.Zero}
	for _, rec := range r.records {
		agg.Events++
		agg.Deaths += int64(rec.Quantity)
		agg.TotalLoss = agg.TotalLoss.Add(rec.TotalLoss)
	}
	return agg, nil
}

// ── Ledger ───────────────────────────────────────────────────────────────────

type stubExpenseRepo struct {
	expenses []model.Expense
}

var _ repository.ExpenseRepository = (*stubExpenseRepo)(nil)

func (r *stubExpenseRepo) CreateTx(_ *gorm.DB, e *model.Expense) error {
	r.expenses = append(r.expenses, *e)
	return nil
}

func (r *stubExpenseRepo) List(_ context.Context, f repository.ExpenseFilter) ([]model.Expense, int64, error) {
	var out []model.Expense
	for _, e := range r.expenses {
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.CashOnly && !e.ImpactsCashFlow {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

type stubAnalysisRepo struct {
	byMonth  map[time.Time]*model.IntegratedFinancialAnalysis
	applyErr error
}

var _ repository.FinancialAnalysisRepository = (*stubAnalysisRepo)(nil)

func newStubAnalysisRepo() *stubAnalysisRepo {
	return &stubAnalysisRepo{byMonth: map[time.Time]*model.IntegratedFinancialAnalysis{}}
}

func (r *stubAnalysisRepo) ApplyDeltaTx(_ *gorm.DB, month time.Time, d repository.AnalysisDelta) (*model.IntegratedFinancialAnalysis, error) {
	if r.applyErr != nil {
		return nil, r.applyErr
	}
	a, ok := r.byMonth[month]
	if !ok {
		a = &model.IntegratedFinancialAnalysis{
			ID:             uuid.New(),
			ReferenceMonth: month,
			ReferenceYear:  month.Year(),
			Status:         model.AnalysisStatusDraft,
		}
		r.byMonth[month] = a
	}
	a.TotalRevenue = a.TotalRevenue.Add(d.TotalRevenue)
	a.TotalExpenses = a.TotalExpenses.Add(d.TotalExpenses)
	a.OperationalExpenses = a.OperationalExpenses.Add(d.OperationalExpenses)
	a.NonCashItems = a.NonCashItems.Add(d.NonCashItems)
	a.NetIncome = a.NetIncome.Add(d.NetIncome)
	a.NetCashFlow = a.NetCashFlow.Add(d.NetCashFlow)
	return a, nil
}

func (r *stubAnalysisRepo) AppendItemTx(_ *gorm.DB, item *model.IntegratedAnalysisItem) error {
	for _, a := range r.byMonth {
		if a.ID == item.AnalysisID {
			a.Items = append(a.Items, *item)
			return nil
		}
	}
	return errors.New("analysis not found")
}

func (r *stubAnalysisRepo) FindByMonth(_ context.Context, month time.Time) (*model.IntegratedFinancialAnalysis, error) {
	a, ok := r.byMonth[month]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

// ── Fixture ──────────────────────────────────────────────────────────────────

type fixture struct {
	purchases     *stubPurchaseRepo
	pens          *stubPenRepo
	interventions *stubInterventionRepo
	mortality     *stubMortalityRepo
	expenses      *stubExpenseRepo
	analyses      *stubAnalysisRepo
	svc           InterventionService
	financial     FinancialService
}

func newFixture() *fixture {
	f := &fixture{
		purchases:     newStubPurchaseRepo(),
		interventions: &stubInterventionRepo{},
		mortality:     &stubMortalityRepo{},
		expenses:      &stubExpenseRepo{},
		analyses:      newStubAnalysisRepo(),
	}
	f.pens = newStubPenRepo(f.purchases)
	f.financial = NewFinancialService(f.expenses, f.analyses)
	f.svc = NewInterventionService(InterventionDeps{
		Purchases:            f.purchases,
		Pens:                 f.pens,
		Interventions:        f.interventions,
		Mortality:            f.mortality,
		Financial:            f.financial,
		HighMortalityRatePct: 2,
	})
	return f
}

func (f *fixture) addPen(number string, capacity int) *model.Pen {
	p := &model.Pen{ID: uuid.New(), PenNumber: number, Capacity: capacity, Active: true}
	f.pens.pens[p.ID] = p
	return p
}

// addLot registers a lot priced at costPerHead with qty animals.
func (f *fixture) addLot(code string, qty int, costPerHead string, weight float64) *model.CattlePurchase {
	total := decimal.RequireFromString(costPerHead).Mul(decimal.NewFromInt(int64(qty)))
	p := &model.CattlePurchase{
		ID:              uuid.New(),
		LotCode:         code,
		InitialQuantity: qty,
		CurrentQuantity: qty,
		TotalCost:       &total,
		AverageWeight:   &weight,
	}
	f.purchases.lots[p.ID] = p
	return p
}

func (f *fixture) allocate(lot *model.CattlePurchase, pen *model.Pen, qty int, at time.Time) *model.LotPenLink {
	l := &model.LotPenLink{
		ID:             uuid.New(),
		PurchaseID:     lot.ID,
		PenID:          pen.ID,
		Quantity:       qty,
		AllocationDate: at,
		Status:         model.LinkStatusActive,
	}
	f.pens.links = append(f.pens.links, l)
	return l
}
