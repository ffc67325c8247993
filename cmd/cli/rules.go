package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/primecut/pricing-service/internal/database"
	"github.com/primecut/pricing-service/internal/rules"
)

var (
	rulesAsOf   string
	rulesOutput string
)

// rulesCmd groups rule inspection commands
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the stored pricing rules",
}

var rulesListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List every rule in execution order",
	Args:        cobra.NoArgs,
	Annotations: dbAnnotation(),
	RunE:        runRulesList,
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that a default rule exists and report conflicting base rules",
	Long: `Check that at least one active, currently valid, standard ALL_PRODUCTS rule
exists, so that every product can be priced, and list default rules that
replace each other's base price. Exits non-zero when no default rule exists.`,
	Args:        cobra.NoArgs,
	Annotations: dbAnnotation(),
	RunE:        runRulesCheck,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesCheckCmd)

	rulesListCmd.Flags().StringVar(&rulesOutput, "output", outputTable, "Output format: table or json")
	rulesCheckCmd.Flags().StringVar(&rulesAsOf, "as-of", "", "Check date (format: YYYY-MM-DD, default today)")
}

func runRulesList(cmd *cobra.Command, args []string) error {
	if err := checkOutput(rulesOutput); err != nil {
		return err
	}

	all, err := database.NewRuleRepository(database.Pool()).FindAll(cmd.Context())
	if err != nil {
		return err
	}

	if strings.ToLower(rulesOutput) == outputJSON {
		return writeJSON(all)
	}

	if len(all) == 0 {
		fmt.Println("No pricing rules configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tORDER\tNAME\tCUSTOMER\tCONDITION\tMETHOD\tVALUE\tACTIVE\tVALID")
	fmt.Fprintln(w, "--\t-----\t----\t--------\t---------\t------\t-----\t------\t-----")
	for _, r := range all {
		customer := "*"
		if !r.IsStandard() {
			customer = *r.CustomerCode
		}
		condition := string(r.Condition)
		if r.ConditionValue != nil {
			condition += "=" + *r.ConditionValue
		}
		method, value := "?", "-"
		if r.Method != nil {
			method, value = string(r.Method.Kind()), r.Method.Value().String()
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
			r.ID, r.ExecutionOrder, r.Name, customer, condition, method, value, r.Active, validity(r))
	}
	w.Flush()
	return nil
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	asOf, err := parseDay("as-of", rulesAsOf, time.Now())
	if err != nil {
		return err
	}

	all, err := database.NewRuleRepository(database.Pool()).FindAll(cmd.Context())
	if err != nil {
		return err
	}

	for _, r := range rules.BaseRuleConflicts(all, asOf) {
		fmt.Printf("warning: default rule %q (order %d) sets the price outright\n", r.Name, r.ExecutionOrder)
	}
	if err := rules.CheckDefaultRule(all, asOf); err != nil {
		return err
	}
	fmt.Printf("OK: %d rules, default rule present on %s\n", len(all), asOf.Format(time.DateOnly))
	return nil
}

func validity(r rules.PricingRule) string {
	if r.ValidFrom == nil && r.ValidTo == nil {
		return "always"
	}
	from, to := "", ""
	if r.ValidFrom != nil {
		from = r.ValidFrom.Format(time.DateOnly)
	}
	if r.ValidTo != nil {
		to = r.ValidTo.Format(time.DateOnly)
	}
	return from + ".." + to
}
