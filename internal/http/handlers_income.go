package http

import (
	"net/http"
	"strconv"

	"budget/internal/core"
	"budget/internal/log"
)

type option struct {
	Value string
	Label string
}

var incomeTypes = []option{
	{string(core.IncomeSalary), "Salary"},
	{string(core.IncomePhoneStipend), "Phone Stipend"},
	{string(core.IncomeOther), "Other Income"},
	{string(core.IncomeTaxReturn), "Tax Return"},
	{string(core.IncomeTransfer), "Transfer"},
}

var payTypes = []string{
	core.PayRegular, core.PayThird, core.PayPhoneStipend,
	core.PayOtherIncome, core.PayTaxReturn, core.PayTransfer,
}

type incomeForm struct {
	pageMeta
	Date        string
	IncomeType  string
	Amount      string
	Description string
	PeriodID    string
	Redirect    string
	Types       []option
}

type paycheckForm struct {
	pageMeta
	Date         string
	PayType      string
	Gross        string
	Taxable      string
	NonTaxable   string
	PhoneStipend bool
	PayTypes     []string
}

// incomeFromFields builds an income entry. period_id is optional.
func incomeFromFields(f fieldSource) (core.Income, error) {
	date, err := core.ParseDate(f.Get("date"))
	if err != nil {
		return core.Income{}, err
	}
	cents, err := core.ParseDecimalToCents(f.Get("amount"))
	if err != nil {
		return core.Income{}, err
	}
	in := core.Income{
		Date:        date,
		Type:        core.IncomeType(f.Get("income_type")),
		Amount:      core.Money{Cents: cents},
		Description: f.Get("description"),
	}
	if id, err := strconv.ParseInt(f.Get("period_id"), 10, 64); err == nil && id > 0 {
		in.PeriodID = &id
	}
	return in, nil
}

// optionalAmount parses a money field that may be left blank or zero.
func optionalAmount(s string) (core.Money, error) {
	if s == "" {
		return core.Money{}, nil
	}
	cents, err := core.ParseNonNegativeCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

func paycheckFromFields(f fieldSource) (core.Paycheck, error) {
	date, err := core.ParseDate(f.Get("date"))
	if err != nil {
		return core.Paycheck{}, err
	}
	gross, err := core.ParseDecimalToCents(f.Get("gross_amount"))
	if err != nil {
		return core.Paycheck{}, err
	}
	taxable, err := optionalAmount(f.Get("taxable_amount"))
	if err != nil {
		return core.Paycheck{}, err
	}
	nonTaxable, err := optionalAmount(f.Get("non_taxable_amount"))
	if err != nil {
		return core.Paycheck{}, err
	}
	return core.Paycheck{
		Date:         date,
		PayType:      f.Get("pay_type"),
		Gross:        core.Money{Cents: gross},
		Taxable:      taxable,
		NonTaxable:   nonTaxable,
		Net:          core.PaycheckNet(core.Money{Cents: gross}, taxable),
		PhoneStipend: f.Bool("phone_stipend"),
	}, nil
}

func (s *Server) newIncomeForm() incomeForm {
	return incomeForm{
		pageMeta:   s.meta("Add Income", "budget"),
		Date:       core.DateOf(s.today()).String(),
		IncomeType: string(core.IncomeSalary),
		Redirect:   "/budget",
		Types:      incomeTypes,
	}
}

func (s *Server) handleIncomeForm(w http.ResponseWriter, r *http.Request) {
	form := s.newIncomeForm()
	q := r.URL.Query()
	form.Redirect = safeRedirect(q.Get("redirect"), "/budget")
	form.PeriodID = sanitizeInput(q.Get("period_id"))
	if d := q.Get("date"); d != "" {
		form.Date = parseDateOr(d, core.DateOf(s.today())).String()
	}
	modal := parseBool(q.Get("modal"))
	form.Modal = modal
	s.render(w, r, http.StatusOK, "income_form.html", form, modal)
}

// handleIncomeFormSubmit stores an income entry posted by the modal form.
// JSON bodies get the API's JSON responses.
func (s *Server) handleIncomeFormSubmit(w http.ResponseWriter, r *http.Request) {
	if sendsJSON(r) {
		s.handleAPIIncome(w, r)
		return
	}
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	fields := formValues(r.PostForm)
	redirect := safeRedirect(fields.Get("redirect"), "/budget")

	in, err := incomeFromFields(fields)
	if err == nil {
		_, err = s.ledger.AddIncome(ctx, in)
	}
	if err != nil {
		if core.IsValidationError(err) {
			form := s.newIncomeForm()
			form.Date = fields.Get("date")
			form.IncomeType = fields.Get("income_type")
			form.Amount = fields.Get("amount")
			form.Description = fields.Get("description")
			form.PeriodID = fields.Get("period_id")
			form.Redirect = redirect
			form.Error = validationMessage(err)
			s.render(w, r, http.StatusUnprocessableEntity, "income_form.html", form, false)
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Failed to save income",
			log.NewFields().WithOperation(log.OpCreate).WithError(err).ToSlice()...)
		s.renderError(w, r, http.StatusInternalServerError, "Error adding income. Please try again.")
		return
	}

	Redirect(redirect).Write(w)
}

// handleAPIIncome stores a JSON income entry using the fixed income split.
func (s *Server) handleAPIIncome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil || !p.IsJSON() {
		JSONError(http.StatusBadRequest, msgNoData).Write(w)
		return
	}

	in, err := incomeFromFields(p)
	if err == nil {
		_, err = s.ledger.AddIncome(ctx, in)
	}
	if err != nil {
		if core.IsValidationError(err) {
			JSONError(http.StatusBadRequest, validationMessage(err)).Write(w)
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Failed to save income",
			log.NewFields().WithOperation(log.OpCreate).WithError(err).ToSlice()...)
		JSONError(http.StatusInternalServerError, "Error adding income").Write(w)
		return
	}

	JSONSuccess(http.StatusCreated, "Income added successfully").Write(w)
}

func (s *Server) newPaycheckForm() paycheckForm {
	return paycheckForm{
		pageMeta: s.meta("Add Paycheck", "dashboard"),
		Date:     core.DateOf(s.today()).String(),
		PayType:  core.PayRegular,
		PayTypes: payTypes,
	}
}

func (s *Server) handlePaycheckForm(w http.ResponseWriter, r *http.Request) {
	form := s.newPaycheckForm()
	modal := parseBool(r.URL.Query().Get("modal"))
	form.Modal = modal
	s.render(w, r, http.StatusOK, "paycheck_form.html", form, modal)
}

func (s *Server) handlePaycheckFormSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	fields := formValues(r.PostForm)

	pc, err := paycheckFromFields(fields)
	if err == nil {
		_, err = s.ledger.AddPaycheck(ctx, pc)
	}
	if err != nil {
		if core.IsValidationError(err) {
			form := s.newPaycheckForm()
			form.Date = fields.Get("date")
			form.PayType = fields.Get("pay_type")
			form.Gross = fields.Get("gross_amount")
			form.Taxable = fields.Get("taxable_amount")
			form.NonTaxable = fields.Get("non_taxable_amount")
			form.PhoneStipend = fields.Bool("phone_stipend")
			form.Error = validationMessage(err)
			s.render(w, r, http.StatusUnprocessableEntity, "paycheck_form.html", form, false)
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Failed to save paycheck",
			log.NewFields().WithOperation(log.OpCreate).WithError(err).ToSlice()...)
		s.renderError(w, r, http.StatusInternalServerError, "Error adding paycheck. Please try again.")
		return
	}

	Redirect("/dashboard").Write(w)
}
