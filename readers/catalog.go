package readers

import (
	"github.com/Noofbiz/subjective/datasets"
)

// catalog exposes the reference/distorted structure of a dataset. Both the
// raw readers and the paired-comparison reader embed it. Derived values are
// computed on first use and memoized; the wrapped dataset must not be
// modified while a reader holds it.
type catalog struct {
	ds *datasets.Dataset

	contentIDs   []int
	contentIndex []int
	disContent   []int
	isRefVideo   []bool
}

// Dataset returns the wrapped dataset. Callers must treat it as read-only.
func (c *catalog) Dataset() *datasets.Dataset {
	return c.ds
}

// NumRefVideos returns the number of reference videos.
func (c *catalog) NumRefVideos() int {
	return len(c.ds.RefVideos)
}

// MaxContentIDOfRefVideos returns the largest reference content id.
func (c *catalog) MaxContentIDOfRefVideos() int {
	m := c.ds.RefVideos[0].ContentID
	for _, ref := range c.ds.RefVideos[1:] {
		if ref.ContentID > m {
			m = ref.ContentID
		}
	}
	return m
}

// NumDisVideos returns the number of distorted videos, i.e. matrix rows.
func (c *catalog) NumDisVideos() int {
	return len(c.ds.DisVideos)
}

// RefScore returns the score assigned to reference copies.
func (c *catalog) RefScore() float64 {
	return c.ds.RefScore
}

// ContentIDOfDisVideos returns the content id of every distorted video, in
// row order.
func (c *catalog) ContentIDOfDisVideos() []int {
	if c.disContent == nil {
		c.disContent = make([]int, len(c.ds.DisVideos))
		for i, v := range c.ds.DisVideos {
			c.disContent[i] = v.ContentID
		}
	}
	return append([]int(nil), c.disContent...)
}

// ContentIDs returns the distinct content ids in reference-video order.
func (c *catalog) ContentIDs() []int {
	if c.contentIDs == nil {
		c.contentIDs = make([]int, len(c.ds.RefVideos))
		for i, ref := range c.ds.RefVideos {
			c.contentIDs[i] = ref.ContentID
		}
	}
	return append([]int(nil), c.contentIDs...)
}

// ContentIndexOfDisVideos returns, for every distorted video, the position of
// its content in ContentIDs. Per-content parameter vectors are indexed by it.
func (c *catalog) ContentIndexOfDisVideos() []int {
	if c.contentIndex == nil {
		pos := make(map[int]int, len(c.ds.RefVideos))
		for i, ref := range c.ds.RefVideos {
			pos[ref.ContentID] = i
		}
		c.contentIndex = make([]int, len(c.ds.DisVideos))
		for i, v := range c.ds.DisVideos {
			c.contentIndex[i] = pos[v.ContentID]
		}
	}
	return append([]int(nil), c.contentIndex...)
}

// DisVideoIsRefVideo reports, per distorted video, whether it is an
// unimpaired copy of its reference: same content and same path.
func (c *catalog) DisVideoIsRefVideo() []bool {
	if c.isRefVideo == nil {
		refPath := make(map[int]string, len(c.ds.RefVideos))
		for _, ref := range c.ds.RefVideos {
			refPath[ref.ContentID] = ref.Path
		}
		c.isRefVideo = make([]bool, len(c.ds.DisVideos))
		for i, v := range c.ds.DisVideos {
			p := refPath[v.ContentID]
			c.isRefVideo[i] = p != "" && p == v.Path
		}
	}
	return append([]bool(nil), c.isRefVideo...)
}
