package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"skillhub/models"
)

// GET /events
func (d *deps) getEvents(c *gin.Context) {
	events, err := d.events.GetAll()
	if err != nil {
		fail(c, err)
		return
	}

	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	left, err := d.resv.SeatsLeftByEvent(c.Request.Context(), ids)
	if err != nil {
		fail(c, err)
		return
	}
	for i := range events {
		events[i].SeatsLeft = left[events[i].ID]
	}

	if events == nil {
		events = []models.Event{}
	}
	c.JSON(http.StatusOK, events)
}

// GET /events/:id
func (d *deps) getEvent(c *gin.Context) {
	id := c.Param("id")
	event, err := d.events.GetByID(id)
	if err != nil {
		fail(c, err)
		return
	}

	left, err := d.resv.SeatsLeft(c.Request.Context(), id)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		fail(c, err)
		return
	}
	event.SeatsLeft = left

	c.JSON(http.StatusOK, event)
}

// POST /events
func (d *deps) createEvent(c *gin.Context) {
	var event models.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		failValidation(c, "Could not parse request data.")
		return
	}
	if event.Title == "" {
		failValidation(c, "Title is required.")
		return
	}
	if event.Capacity < 0 {
		failValidation(c, "Capacity cannot be negative.")
		return
	}
	if event.Price < 0 {
		failValidation(c, "Price cannot be negative.")
		return
	}

	event.ID = uuid.NewString()
	event.CreatedBy = c.GetInt64("userId")
	event.SeatsLeft = event.Capacity

	if err := d.events.Create(&event); err != nil {
		fail(c, err)
		return
	}
	// The seat counter is what the coordinator locks; an event without one is
	// unbookable, so roll the catalog write back if it cannot be created.
	if err := d.resv.CreateSeats(c.Request.Context(), event.ID, event.Capacity); err != nil {
		_ = d.events.Delete(event.ID)
		fail(c, err)
		return
	}

	if d.inv != nil {
		d.inv.PurgeEventsList(c)
		d.inv.PurgeEventItem(c, event.ID)
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Event created.", "event": event})
}
