package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"skillhub/models"
)

// POST /events/:id/book
func (d *deps) reserveSeat(c *gin.Context) {
	userId := c.GetInt64("userId")
	eventId := c.Param("id")

	booking, err := d.resv.Reserve(c.Request.Context(), eventId, userId)
	if err != nil {
		fail(c, err)
		return
	}

	if d.inv != nil {
		d.inv.PurgeEventsList(c)
		d.inv.PurgeEventItem(c, eventId)
	}

	resp := gin.H{
		"message": "Booking successful.",
		"booking": booking,
	}
	// seats_left is recomputed after commit, so the confirmation matches what
	// the next read will show. The booking already stands; if the count read
	// fails the field is omitted rather than reported wrong.
	if left, err := d.resv.SeatsLeft(c.Request.Context(), eventId); err == nil {
		resp["seats_left"] = left
	}
	c.JSON(http.StatusCreated, resp)
}

// DELETE /bookings/:id
func (d *deps) cancelBooking(c *gin.Context) {
	userId := c.GetInt64("userId")
	bookingId := c.Param("id")

	if err := d.resv.Cancel(c.Request.Context(), bookingId, userId); err != nil {
		fail(c, err)
		return
	}

	if d.inv != nil {
		d.inv.PurgeEventsList(c)
		d.inv.PurgeEventItem(c, "")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled."})
}

// GET /my-bookings
func (d *deps) myBookings(c *gin.Context) {
	userId := c.GetInt64("userId")

	bookings, err := d.resv.ListByUser(c.Request.Context(), userId)
	if err != nil {
		fail(c, err)
		return
	}

	ids := make([]string, 0, len(bookings))
	seen := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		if !seen[b.EventID] {
			seen[b.EventID] = true
			ids = append(ids, b.EventID)
		}
	}
	events, err := d.events.GetByIDs(ids)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		fail(c, err)
		return
	}

	out := make([]models.BookingWithEvent, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, models.BookingWithEvent{Booking: b, Event: events[b.EventID]})
	}
	c.JSON(http.StatusOK, out)
}
