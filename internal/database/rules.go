package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/primecut/pricing-service/internal/rules"
)

const ruleColumns = `
	id, rule_name, customer_code, condition_type, condition_value,
	pricing_method, pricing_value, is_active, execution_order, valid_from, valid_to
`

// RuleRepository stores pricing rules. It implements rules.Provider.
type RuleRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewRuleRepository creates a rule repository on pool.
func NewRuleRepository(pool *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{
		pool:   pool,
		logger: log.With().Str("component", "rule_repository").Logger(),
	}
}

var _ rules.Provider = (*RuleRepository)(nil)

// FindApplicableRules returns the active standard rules plus the rules scoped
// to customerCode that are valid on asOf, ordered by execution order then id.
func (r *RuleRepository) FindApplicableRules(ctx context.Context, customerCode string, asOf time.Time) ([]rules.PricingRule, error) {
	query := `SELECT ` + ruleColumns + `
		FROM pricing_rules
		WHERE is_active
		  AND (customer_code IS NULL OR customer_code = $1)
		  AND (valid_from IS NULL OR valid_from <= $2::date)
		  AND (valid_to IS NULL OR valid_to >= $2::date)
		ORDER BY execution_order, id
	`
	return r.query(ctx, query, customerCode, asOf.Format(time.DateOnly))
}

// FindAll returns every rule, including inactive and expired ones.
func (r *RuleRepository) FindAll(ctx context.Context) ([]rules.PricingRule, error) {
	return r.query(ctx, `SELECT `+ruleColumns+` FROM pricing_rules ORDER BY execution_order, id`)
}

// Get returns the rule with id, or ErrNotFound.
func (r *RuleRepository) Get(ctx context.Context, id int64) (rules.PricingRule, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+ruleColumns+` FROM pricing_rules WHERE id = $1`, id)
	rule, err := r.scan(row)
	if err != nil {
		return rules.PricingRule{}, notFound(err)
	}
	return rule, nil
}

// Create validates and inserts rule, returning its new id.
func (r *RuleRepository) Create(ctx context.Context, rule rules.PricingRule) (int64, error) {
	if err := rules.Validate(rule); err != nil {
		return 0, err
	}

	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO pricing_rules (
			rule_name, customer_code, condition_type, condition_value,
			pricing_method, pricing_value, is_active, execution_order, valid_from, valid_to
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, ruleArgs(rule)...).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %q", ErrDuplicateRuleName, rule.Name)
		}
		return 0, fmt.Errorf("failed to insert pricing rule: %w", err)
	}

	r.logger.Info().Int64("rule_id", id).Str("rule", rule.Name).Msg("Pricing rule created")
	return id, nil
}

// Update replaces the stored rule with the same id. The change is refused
// with ErrLastDefaultRule if it would leave no default rule.
func (r *RuleRepository) Update(ctx context.Context, rule rules.PricingRule) error {
	if err := rules.Validate(rule); err != nil {
		return err
	}

	return r.guarded(ctx, func(tx pgx.Tx, defaults []rules.PricingRule) ([]rules.PricingRule, error) {
		args := append(ruleArgs(rule), rule.ID)
		tag, err := tx.Exec(ctx, `
			UPDATE pricing_rules SET
				rule_name = $1, customer_code = $2, condition_type = $3, condition_value = $4,
				pricing_method = $5, pricing_value = $6, is_active = $7, execution_order = $8,
				valid_from = $9, valid_to = $10, updated_at = now()
			WHERE id = $11
		`, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateRuleName, rule.Name)
			}
			return nil, fmt.Errorf("failed to update pricing rule: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, ErrNotFound
		}

		after := make([]rules.PricingRule, 0, len(defaults)+1)
		for _, d := range defaults {
			if d.ID != rule.ID {
				after = append(after, d)
			}
		}
		return append(after, rule), nil
	})
}

// Delete removes the rule with id. Snapshots keep their copied values and
// lose only the rule reference. Deleting the last default rule is refused.
func (r *RuleRepository) Delete(ctx context.Context, id int64) error {
	return r.guarded(ctx, func(tx pgx.Tx, defaults []rules.PricingRule) ([]rules.PricingRule, error) {
		tag, err := tx.Exec(ctx, `DELETE FROM pricing_rules WHERE id = $1`, id)
		if err != nil {
			return nil, fmt.Errorf("failed to delete pricing rule: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, ErrNotFound
		}

		after := make([]rules.PricingRule, 0, len(defaults))
		for _, d := range defaults {
			if d.ID != id {
				after = append(after, d)
			}
		}
		return after, nil
	})
}

// guarded runs change in a transaction holding row locks on the current
// default rule candidates. change returns the candidates as they would be
// after the change; the transaction commits only if one of them is still a
// default rule today.
func (r *RuleRepository) guarded(ctx context.Context, change func(tx pgx.Tx, defaults []rules.PricingRule) ([]rules.PricingRule, error)) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT `+ruleColumns+`
		FROM pricing_rules
		WHERE customer_code IS NULL AND condition_type = 'ALL_PRODUCTS'
		ORDER BY id
		FOR UPDATE
	`)
	if err != nil {
		return fmt.Errorf("failed to lock default rules: %w", err)
	}
	defaults, err := r.collect(rows)
	if err != nil {
		return err
	}

	after, err := change(tx, defaults)
	if err != nil {
		return err
	}

	now := time.Now()
	if rules.CheckDefaultRule(defaults, now) == nil && rules.CheckDefaultRule(after, now) != nil {
		return ErrLastDefaultRule
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *RuleRepository) query(ctx context.Context, query string, args ...any) ([]rules.PricingRule, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pricing rules: %w", err)
	}
	return r.collect(rows)
}

func (r *RuleRepository) collect(rows pgx.Rows) ([]rules.PricingRule, error) {
	defer rows.Close()

	var out []rules.PricingRule
	for rows.Next() {
		rule, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pricing rules: %w", err)
	}
	return out, nil
}

// scan reads one rule. A stored method name the engine does not know leaves
// Method nil, so the calculator skips the rule instead of failing the query.
func (r *RuleRepository) scan(row pgx.Row) (rules.PricingRule, error) {
	var (
		rule      rules.PricingRule
		condition string
		method    string
		value     decimal.Decimal
	)
	err := row.Scan(
		&rule.ID, &rule.Name, &rule.CustomerCode, &condition, &rule.ConditionValue,
		&method, &value, &rule.Active, &rule.ExecutionOrder, &rule.ValidFrom, &rule.ValidTo,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rule, err
		}
		return rule, fmt.Errorf("failed to scan pricing rule: %w", err)
	}
	rule.Condition = rules.ConditionType(condition)

	m, err := rules.NewMethod(rules.MethodKind(method), value)
	if err != nil {
		r.logger.Warn().Err(err).Int64("rule_id", rule.ID).Str("rule", rule.Name).Msg("Stored rule has unknown pricing method")
		return rule, nil
	}
	rule.Method = m
	return rule, nil
}

func ruleArgs(rule rules.PricingRule) []any {
	var kind string
	var value decimal.Decimal
	if rule.Method != nil {
		kind = string(rule.Method.Kind())
		value = rule.Method.Value()
	}
	return []any{
		rule.Name, rule.CustomerCode, string(rule.Condition), rule.ConditionValue,
		kind, value, rule.Active, rule.ExecutionOrder, dateArg(rule.ValidFrom), dateArg(rule.ValidTo),
	}
}

// dateArg renders a date bound as YYYY-MM-DD so the time zone of t never
// shifts the stored day.
func dateArg(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}
