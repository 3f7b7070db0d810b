package view

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/webgis-dashboard/internal/colorscale"
	"github.com/jengzang/webgis-dashboard/internal/models"
)

func newController() *Controller {
	return NewController(DefaultViewState(), colorscale.DefaultPalette())
}

func TestControllerInitialState(t *testing.T) {
	s := newController().State()
	assert.Equal(t, ViewState{Latitude: 25.04, Longitude: 121.55, Zoom: 11}, s.View)
	assert.Equal(t, AllBrands, s.Filter.Brand)
	assert.True(t, s.Layers.Grid)
	assert.True(t, s.Layers.Points)
}

func TestMoveCameraNotifiesEverySubscriber(t *testing.T) {
	c := newController()
	var left, right []Event
	c.Subscribe(func(e Event) { left = append(left, e) })
	c.Subscribe(func(e Event) { right = append(right, e) })

	pose := ViewState{Latitude: 25.1, Longitude: 121.6, Zoom: 13, Pitch: 30, Bearing: 10}
	s, err := c.MoveCamera(pose)
	require.NoError(t, err)
	assert.Equal(t, pose, s.View)

	// both panes see the identical pose before MoveCamera returned
	require.Len(t, left, 1)
	require.Len(t, right, 1)
	assert.Equal(t, left[0], right[0])
	assert.Equal(t, pose, left[0].State.View)
	assert.Equal(t, EventCamera, left[0].Kind)
	assert.EqualValues(t, 1, left[0].Seq)
}

func TestMoveCameraRejectsInvalidPose(t *testing.T) {
	c := newController()
	notified := false
	c.Subscribe(func(Event) { notified = true })

	for _, v := range []ViewState{
		{Latitude: 91, Longitude: 121, Zoom: 10},
		{Latitude: 25, Longitude: 181, Zoom: 10},
		{Latitude: 25, Longitude: 121, Zoom: -1},
		{Latitude: 25, Longitude: 121, Zoom: 10, Pitch: 90},
		{Latitude: math.NaN(), Longitude: 121, Zoom: 10},
	} {
		_, err := c.MoveCamera(v)
		assert.ErrorIs(t, err, ErrInvalidViewState)
	}
	assert.False(t, notified)
	assert.Equal(t, DefaultViewState(), c.State().View)
}

func TestResetCamera(t *testing.T) {
	c := newController()
	_, err := c.MoveCamera(ViewState{Latitude: 24, Longitude: 120, Zoom: 8})
	require.NoError(t, err)
	assert.Equal(t, DefaultViewState(), c.ResetCamera().View)
}

func TestSelectBrand(t *testing.T) {
	c := newController()

	s, err := c.SelectBrand("全家便利商店股份有限公司")
	require.NoError(t, err)
	assert.Equal(t, "全家便利商店股份有限公司", s.Filter.Brand)

	_, err = c.SelectBrand("全家")
	assert.True(t, errors.Is(err, ErrUnknownBrand))
	assert.Equal(t, "全家便利商店股份有限公司", c.State().Filter.Brand)

	s, err = c.SelectBrand(AllBrands)
	require.NoError(t, err)
	assert.True(t, s.Filter.All())

	_, err = c.SelectBrand("萊爾富國際股份有限公司")
	require.NoError(t, err)
	assert.Equal(t, AllBrands, c.ResetFilter().Filter.Brand)
}

func TestSetLayers(t *testing.T) {
	c := newController()
	var got Event
	c.Subscribe(func(e Event) { got = e })

	s := c.SetLayers(LayerVisibility{Grid: false, Points: true})
	assert.False(t, s.Layers.Grid)
	assert.Equal(t, EventLayers, got.Kind)
}

func TestUnsubscribe(t *testing.T) {
	c := newController()
	n := 0
	cancel := c.Subscribe(func(Event) { n++ })
	c.ResetCamera()
	cancel()
	c.ResetCamera()
	assert.Equal(t, 1, n)
	assert.EqualValues(t, 2, c.Seq())
}

func TestConcurrentTransitions(t *testing.T) {
	c := newController()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = c.MoveCamera(ViewState{Latitude: 25, Longitude: 121, Zoom: float64(i % 20)})
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 50, c.Seq())
}

func TestRestore(t *testing.T) {
	c := newController()
	s := State{View: ViewState{Latitude: 24, Longitude: 120, Zoom: 9}, Filter: FilterState{Brand: AllBrands}}
	c.Restore(s, 7)
	assert.Equal(t, s, c.State())
	assert.EqualValues(t, 7, c.Seq())
}

func TestSyncAdoptsNewerState(t *testing.T) {
	c := newController()
	var got []Event
	c.Subscribe(func(ev Event) { got = append(got, ev) })

	_, err := c.MoveCamera(ViewState{Latitude: 25, Longitude: 121, Zoom: 10})
	require.NoError(t, err)

	remote := c.State()
	remote.View = ViewState{Latitude: 24, Longitude: 120, Zoom: 8}

	// older than the local sequence
	assert.False(t, c.Sync(remote, 0))
	// same sequence and same state
	assert.False(t, c.Sync(c.State(), 1))
	assert.Len(t, got, 1)

	assert.True(t, c.Sync(remote, 3))
	assert.Equal(t, remote, c.State())
	assert.EqualValues(t, 3, c.Seq())
	require.Len(t, got, 2)
	assert.Equal(t, EventSync, got[1].Kind)
	assert.EqualValues(t, 3, got[1].Seq)

	// a tie with a different state goes to the shared copy
	tie := remote
	tie.Filter = FilterState{Brand: "全家便利商店股份有限公司"}
	assert.True(t, c.Sync(tie, 3))
	assert.Equal(t, tie, c.State())

	// the next local transition continues from the adopted sequence
	c.ResetCamera()
	assert.EqualValues(t, 4, c.Seq())
}

func points() []models.PointRecord {
	return []models.PointRecord{
		{StoreName: "A", CompanyName: "統一超商股份有限公司"},
		{StoreName: "B", CompanyName: "全家便利商店股份有限公司"},
		{StoreName: "C", CompanyName: "統一超商股份有限公司台北分公司"},
		{StoreName: "D", CompanyName: "統一超商股份有限公司"},
	}
}

func TestFilterPointsExactMatch(t *testing.T) {
	r := FilterPoints(points(), FilterState{Brand: "統一超商股份有限公司"})
	assert.Equal(t, 2, r.Count)
	assert.False(t, r.Empty)
	for _, p := range r.Points {
		assert.Equal(t, "統一超商股份有限公司", p.CompanyName)
	}
	assert.Equal(t, "目前顯示：統一超商股份有限公司 (共 2 筆)", r.Message)
}

func TestFilterPointsAllIsIdempotent(t *testing.T) {
	all := FilterPoints(points(), FilterState{Brand: AllBrands})
	again := FilterPoints(all.Points, FilterState{Brand: AllBrands})
	assert.Equal(t, points(), all.Points)
	assert.Equal(t, all.Points, again.Points)
	assert.Equal(t, 4, all.Count)

	assert.Equal(t, AllBrands, FilterPoints(points(), FilterState{}).Brand)
}

func TestFilterPointsNoMatch(t *testing.T) {
	r := FilterPoints(points(), FilterState{Brand: "來來超商股份有限公司"})
	assert.True(t, r.Empty)
	assert.Equal(t, 0, r.Count)
	assert.NotNil(t, r.Points)
	assert.Equal(t, "目前顯示：來來超商股份有限公司 (共 0 筆)", r.Message)
}
