package dashboard

import (
	"html/template"
	"net/http"

	"poverty-dashboard/internal/common"
	"poverty-dashboard/internal/features"
	"poverty-dashboard/internal/ml"

	"github.com/rs/zerolog/log"
)

var metricNames = []string{"R2", "MAE", "MSE"}

// ModelRow is one row of the evaluation metrics table.
type ModelRow struct {
	Name    string         `json:"name"`
	Metrics ml.EvalMetrics `json:"metrics"`
	// Best lists the metrics on which this model scores best.
	Best []string `json:"best,omitempty"`
}

// IsBest reports whether the model scores best on metric.
func (r ModelRow) IsBest(metric string) bool {
	for _, m := range r.Best {
		if m == metric {
			return true
		}
	}
	return false
}

// ImportanceBar is one feature-importance bar, scaled to the largest.
type ImportanceBar struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
	Width      float64 `json:"width"`
}

// ModelPanel is the static model performance section.
type ModelPanel struct {
	Features   []string        `json:"features"`
	Models     []ModelRow      `json:"models"`
	Importance []ImportanceBar `json:"importance"`
}

func buildPanel(b *ml.Bundle) ModelPanel {
	best := make(map[string]string, len(metricNames))
	for _, metric := range metricNames {
		if name, ok := b.BestBy(metric); ok {
			best[metric] = name
		}
	}

	metrics := b.Metrics()
	panel := ModelPanel{Features: b.Features()}
	for _, m := range b.Models() {
		em, ok := metrics[m.Name]
		if !ok {
			continue
		}
		row := ModelRow{Name: m.Name, Metrics: em}
		for _, metric := range metricNames {
			if best[metric] == m.Name {
				row.Best = append(row.Best, metric)
			}
		}
		panel.Models = append(panel.Models, row)
	}

	var max float64
	for _, fi := range b.FeatureImportance() {
		if fi.Importance > max {
			max = fi.Importance
		}
	}
	for _, fi := range b.FeatureImportance() {
		bar := ImportanceBar{Feature: fi.Feature, Importance: fi.Importance}
		if max > 0 {
			bar.Width = fi.Importance / max * 100
		}
		panel.Importance = append(panel.Importance, bar)
	}
	return panel
}

func (d *Dashboard) handleModel(w http.ResponseWriter, r *http.Request) {
	d.writeJSON(w, http.StatusOK, buildPanel(d.bundle))
}

type indexData struct {
	Countries []common.Country
	Years     []int
	Scenario  features.Scenario
	Bounds    map[string]features.Bound
	Panel     ModelPanel
}

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

func (d *Dashboard) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Countries: common.KnownCountries,
		Years:     d.years,
		Scenario:  features.DefaultScenario,
		Bounds:    features.ScenarioBounds,
		Panel:     buildPanel(d.bundle),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("failed to render dashboard")
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Hybrid Poverty Rate Prediction Dashboard</title>
    <meta charset="utf-8">
    <style>
        body { font-family: sans-serif; margin: 2em; }
        .tabs button.active { font-weight: bold; }
        .tab { display: none; } .tab.active { display: block; }
        .pred { display: inline-block; margin-right: 3em; font-size: 1.6em; }
        .error { color: #b00020; } .ok { color: #1b5e20; }
        .best { background: lightgreen; }
        .bar { background: #3b528b; height: 1em; }
        table { border-collapse: collapse; } td, th { padding: 4px 10px; border: 1px solid #ddd; }
    </style>
</head>
<body>
<h1>Hybrid Poverty Rate Prediction Dashboard</h1>
<p>Choose your method: use the <b>Live API</b> to fetch real economic data or the <b>Manual Scenario Builder</b> to test hypothetical situations.</p>

<div class="tabs">
    <button id="tab-live-btn" class="active" onclick="showTab('live')">Live API Prediction</button>
    <button id="tab-scenario-btn" onclick="showTab('scenario')">Manual Scenario Builder</button>
</div>

<div id="tab-live" class="tab active">
    <h2>Predict from Live World Bank Data</h2>
    <select id="country">{{range .Countries}}<option value="{{.Code}}">{{.Name}}</option>{{end}}</select>
    <select id="year">{{range .Years}}<option>{{.}}</option>{{end}}</select>
    <button onclick="predictLive()">Fetch Data &amp; Predict</button>
    <p id="live-status"></p>
    <div id="live-preds"></div>
</div>

<div id="tab-scenario" class="tab">
    <h2>Build a Custom Economic Scenario</h2>
    {{with index .Bounds "gdp_billion_usd"}}<label>GDP (in billion USD) <input id="gdp_billion_usd" type="number" min="{{.Min}}" max="{{.Max}}" step="100" value="{{$.Scenario.GDP}}" oninput="sendScenario()"></label><br>{{end}}
    {{with index .Bounds "inflation_rate"}}<label>Inflation Rate (%) <input id="inflation_rate" type="range" min="{{.Min}}" max="{{.Max}}" step="0.1" value="{{$.Scenario.Inflation}}" oninput="sendScenario()"></label><br>{{end}}
    {{with index .Bounds "unemployment_rate"}}<label>Unemployment Rate (%) <input id="unemployment_rate" type="range" min="{{.Min}}" max="{{.Max}}" step="0.1" value="{{$.Scenario.Unemployment}}" oninput="sendScenario()"></label><br>{{end}}
    {{with index .Bounds "economic_growth"}}<label>Economic Growth (%) <input id="economic_growth" type="range" min="{{.Min}}" max="{{.Max}}" step="0.1" value="{{$.Scenario.Growth}}" oninput="sendScenario()"></label><br>{{end}}
    <h3>Model Predictions for Your Scenario</h3>
    <p id="scenario-status"></p>
    <div id="scenario-preds"></div>
</div>

<hr>
<h2>Model Performance &amp; Explanation</h2>
<p>The performance was measured on historical test data.</p>
<h3>Evaluation Metrics</h3>
<table>
    <tr><th>Model</th><th>R2</th><th>MAE</th><th>MSE</th></tr>
    {{range .Panel.Models}}
    <tr><td>{{.Name}}</td>
        <td{{if .IsBest "R2"}} class="best"{{end}}>{{printf "%.4f" .Metrics.R2}}</td>
        <td{{if .IsBest "MAE"}} class="best"{{end}}>{{printf "%.4f" .Metrics.MAE}}</td>
        <td{{if .IsBest "MSE"}} class="best"{{end}}>{{printf "%.4f" .Metrics.MSE}}</td></tr>
    {{end}}
</table>
<h3>What drives the predictions? (Feature Importance)</h3>
<table>
    {{range .Panel.Importance}}
    <tr><td>{{.Feature}}</td><td style="width:300px"><div class="bar" style="width: {{printf "%.1f" .Width}}%"></div></td><td>{{printf "%.3f" .Importance}}</td></tr>
    {{end}}
</table>

<script>
function showTab(name) {
    for (const t of ['live', 'scenario']) {
        document.getElementById('tab-' + t).classList.toggle('active', t === name);
        document.getElementById('tab-' + t + '-btn').classList.toggle('active', t === name);
    }
}
function renderPreds(el, preds) {
    el.innerHTML = preds.map(p => '<div class="pred">' + p.model + ' Prediction<br><b>' + p.value.toFixed(2) + '%</b></div>').join('');
}
async function predictLive() {
    const status = document.getElementById('live-status');
    const preds = document.getElementById('live-preds');
    status.className = ''; status.textContent = 'Fetching data...'; preds.innerHTML = '';
    const q = new URLSearchParams({country: document.getElementById('country').value, year: document.getElementById('year').value});
    const resp = await fetch('/api/predict/live?' + q);
    const body = await resp.json();
    if (!resp.ok) { status.className = 'error'; status.textContent = body.error; return; }
    status.className = 'ok'; status.textContent = 'Successfully fetched data!';
    renderPreds(preds, body.predictions);
}
let ws;
function sendScenario() {
    const s = {};
    for (const id of ['gdp_billion_usd', 'inflation_rate', 'unemployment_rate', 'economic_growth']) {
        s[id] = parseFloat(document.getElementById(id).value);
    }
    if (ws && ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify(s));
}
function connect() {
    ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws/scenario');
    ws.onopen = sendScenario;
    ws.onmessage = ev => {
        const msg = JSON.parse(ev.data);
        const status = document.getElementById('scenario-status');
        if (msg.error) { status.className = 'error'; status.textContent = msg.error; return; }
        status.textContent = '';
        renderPreds(document.getElementById('scenario-preds'), msg.result.predictions);
    };
    ws.onclose = () => setTimeout(connect, 2000);
}
connect();
</script>
</body>
</html>`
