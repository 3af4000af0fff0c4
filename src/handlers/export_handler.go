package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/username/slipfolio/src/logger"
	"github.com/username/slipfolio/src/security/validation"
	"github.com/username/slipfolio/src/services"
	"github.com/username/slipfolio/src/utils"
)

type ExportHandler struct {
	reportService  services.ReportService
	profileService services.ProfileService
}

func NewExportHandler(reportService services.ReportService, profileService services.ProfileService) *ExportHandler {
	return &ExportHandler{
		reportService:  reportService,
		profileService: profileService,
	}
}

// HandleExportStatement streams the range report as a CSV statement with
// the business profile as a header block. Free-text cells are sanitized so
// spreadsheet software cannot interpret them as formulas.
func (h *ExportHandler) HandleExportStatement(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	from := q.Get("from")
	to := q.Get("to")
	if !utils.ValidDate(from) || !utils.ValidDate(to) {
		utils.SendJSONError(w, "from and to must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if from > to {
		utils.SendJSONError(w, "from must not be after to", http.StatusBadRequest)
		return
	}

	var machineIDs []string
	if raw := q.Get("machineIds"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				machineIDs = append(machineIDs, id)
			}
		}
	}

	report, err := h.reportService.GetRangeReport(userID, from, to, machineIDs)
	if err != nil {
		logger.L.Error("Failed to build range report for export", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to build statement", http.StatusInternalServerError)
		return
	}

	profile, err := h.profileService.GetProfile(userID)
	if err != nil {
		logger.L.Error("Failed to load business profile for export", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to build statement", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("statement_%s_%s.csv", from, to)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	cw := csv.NewWriter(w)
	defer cw.Flush()

	text := func(s string) string {
		return validation.SanitizeForFormulaInjection(validation.StripUnprintable(s))
	}
	amount := func(v float64) string {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}

	if profile.BusinessName != "" {
		cw.Write([]string{text(profile.BusinessName)})
	}
	if profile.OwnerName != "" {
		cw.Write([]string{text(profile.OwnerName)})
	}
	if profile.Phone != "" || profile.Address != "" {
		cw.Write([]string{text(profile.Phone), text(profile.Address)})
	}
	if profile.VATNumber != "" {
		cw.Write([]string{"VAT", text(profile.VATNumber)})
	}
	cw.Write([]string{fmt.Sprintf("Statement %s to %s", from, to)})
	cw.Write([]string{})

	cw.Write([]string{
		"Date", "Machine",
		"Mada", "Visa", "Mastercard", "GCC",
		"Bank Mada", "Bank Visa", "Bank Mastercard", "Bank GCC",
		"Slip Total", "Statement Total", "Difference",
		"Opening Balance", "Closing Balance", "Notes",
	})

	for _, day := range report.Days {
		for _, row := range day.Rows {
			machineName := row.MachineName
			if machineName == "" {
				machineName = row.MachineID
			}
			cw.Write([]string{
				row.Date,
				text(machineName),
				amount(row.Mada), amount(row.Visa), amount(row.Mastercard), amount(row.GCC),
				amount(row.BankMada), amount(row.BankVisa), amount(row.BankMastercard), amount(row.BankGCC),
				amount(row.SlipTotal), amount(row.StatementTotal), amount(row.Difference),
				amount(row.OpeningBalance), amount(row.ClosingBalance),
				text(row.Notes),
			})
		}
	}

	cw.Write([]string{})
	cw.Write([]string{
		"Totals", "",
		"", "", "", "",
		"", "", "", "",
		amount(report.Totals.SlipTotal), amount(report.Totals.StatementTotal), amount(report.Totals.Difference),
		amount(report.Totals.OpeningBalance), amount(report.Totals.ClosingBalance),
		"",
	})

	if err := cw.Error(); err != nil {
		logger.L.Error("Failed writing CSV statement", "userID", userID, "error", err)
	}
}
