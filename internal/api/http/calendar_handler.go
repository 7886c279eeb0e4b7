package http

import (
	"net/http"

	"rentalshop-backend/internal/calendar"
	"rentalshop-backend/internal/report"
	"rentalshop-backend/internal/service"
	"rentalshop-backend/internal/utils"
)

type CalendarHandler struct {
	calendarSvc service.CalendarService
	reportSvc   service.ReportService
}

func NewCalendarHandler(calendarSvc service.CalendarService, reportSvc service.ReportService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc, reportSvc: reportSvc}
}

func (h *CalendarHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if err := requireQuery(r, "from"); err != nil {
		writeError(w, r, err)
		return
	}
	days, err := queryInt(r, "days", 7)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.calendarSvc.GetCalendar(r.Context(), staffFrom(r.Context()).ShopID, r.URL.Query().Get("from"), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "", toCalendarResponse(view))
}

// toCalendarResponse turns the layout into rows of day cells. Hidden segments
// are left out of the cell and only counted.
func toCalendarResponse(view *service.CalendarView) CalendarResponse {
	resp := CalendarResponse{
		Days: make([]string, len(view.Days)),
		Rows: make([]CalendarRow, 0, len(view.Vehicles)),
	}
	for i, d := range view.Days {
		resp.Days[i] = utils.FormatDate(d)
	}
	for _, v := range view.Vehicles {
		row := CalendarRow{Vehicle: v, Days: make([]CalendarDay, len(view.Days))}
		for i := range view.Days {
			cell := CalendarDay{Date: resp.Days[i], Segments: []*calendar.Segment{}}
			for _, seg := range view.Layout.Bucket(v.ID, i) {
				if seg.Hidden {
					cell.Hidden++
					continue
				}
				cell.Segments = append(cell.Segments, seg)
			}
			row.Days[i] = cell
		}
		row.Vehicle.Damages = nil
		resp.Rows = append(resp.Rows, row)
	}
	return resp
}

func (h *CalendarHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	if err := requireQuery(r, "from", "to"); err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	period := report.Period(q.Get("period"))
	if period == "" {
		period = report.PeriodDay
	}
	rep, err := h.reportSvc.Revenue(r.Context(), staffFrom(r.Context()).ShopID, q.Get("from"), q.Get("to"), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "", rep)
}
