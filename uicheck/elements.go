package uicheck

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ElementSpec names one element to locate and the strategy to find it by.
type ElementSpec struct {
	Name  string `yaml:"name" json:"name"`
	By    string `yaml:"by" json:"by"` // id, class, tag or selector
	Value string `yaml:"value" json:"value"`
}

// ElementResult records what was observed for one spec.
type ElementResult struct {
	Name    string `json:"name"`
	Found   bool   `json:"found"`
	Visible bool   `json:"visible"`
	Text    string `json:"text,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ElementsResult aggregates a whole elements check. Success requires every
// requested element both found and visible.
type ElementsResult struct {
	Success  bool            `json:"success"`
	Elements []ElementResult `json:"elements"`
	Error    string          `json:"error,omitempty"`
}

// LoadElementSpecs reads element specs from a YAML file of the form:
//
//	elements:
//	  - name: clients grid
//	    by: id
//	    value: clientsGrid
func LoadElementSpecs(path string) ([]ElementSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read element specs %s", path)
	}
	var doc struct {
		Elements []ElementSpec `yaml:"elements"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "failed to parse element specs %s", path)
	}
	for i, spec := range doc.Elements {
		if _, err := buildSelector(spec); err != nil {
			return nil, errors.Wrapf(err, "spec %d (%s)", i, spec.Name)
		}
	}
	return doc.Elements, nil
}

// buildSelector translates a spec into a CSS selector.
func buildSelector(spec ElementSpec) (string, error) {
	if spec.Value == "" {
		return "", errors.New("empty selector value")
	}
	switch strings.ToLower(spec.By) {
	case "id":
		return "#" + spec.Value, nil
	case "class":
		return "." + spec.Value, nil
	case "tag":
		return spec.Value, nil
	case "selector", "css":
		return spec.Value, nil
	default:
		return "", errors.Errorf("unknown selector strategy %q", spec.By)
	}
}

// elementProbeJS inspects the first match of a selector without failing when
// it is absent.
const elementProbeJS = `(() => {
	const el = document.querySelector(%q);
	if (!el) { return {found: false}; }
	const style = window.getComputedStyle(el);
	const visible = el.offsetParent !== null &&
		style.visibility !== 'hidden' && style.display !== 'none';
	return {
		found: true,
		visible: visible,
		text: (el.textContent || '').trim(),
		tag: el.tagName.toLowerCase()
	};
})()`

// CheckElements loads url and probes each spec by its requested strategy.
func (c *Checker) CheckElements(ctx context.Context, url string, specs []ElementSpec) ElementsResult {
	result := ElementsResult{}
	c.log.Info("checking elements", "url", url, "count", len(specs))

	browserCtx, cancel := c.newBrowser(ctx)
	defer cancel()

	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("body", chromedp.ByQuery),
	); err != nil {
		result.Error = errors.Wrap(err, "page did not load").Error()
		return result
	}

	allOK := len(specs) > 0
	for _, spec := range specs {
		er := ElementResult{Name: spec.Name}

		selector, err := buildSelector(spec)
		if err != nil {
			er.Error = err.Error()
			allOK = false
			result.Elements = append(result.Elements, er)
			continue
		}

		var probe struct {
			Found   bool   `json:"found"`
			Visible bool   `json:"visible"`
			Text    string `json:"text"`
			Tag     string `json:"tag"`
		}
		if err := chromedp.Run(browserCtx,
			chromedp.Evaluate(fmt.Sprintf(elementProbeJS, selector), &probe),
		); err != nil {
			er.Error = err.Error()
			allOK = false
			result.Elements = append(result.Elements, er)
			continue
		}

		er.Found = probe.Found
		er.Visible = probe.Visible
		er.Text = probe.Text
		er.Tag = probe.Tag
		if !probe.Found || !probe.Visible {
			allOK = false
		}
		result.Elements = append(result.Elements, er)
	}

	result.Success = allOK
	return result
}
