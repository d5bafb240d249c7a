package emit

// prelude opens a chunk. It defines the module registry and the helpers
// rewritten modules call through their __bundler parameter, then takes the
// module table and entry ID as arguments.
const prelude = `(function (modules, entry) {
  var cache = {};
  function load(id) {
    var cached = cache[id];
    if (cached) {
      return cached.exports;
    }
    var module = (cache[id] = { exports: {} });
    modules[id].call(module.exports, module, module.exports, load, bundler);
    return module.exports;
  }
  var bundler = {
    define: function (exports, getters) {
      if (!exports.__esModule) {
        Object.defineProperty(exports, "__esModule", { value: true });
      }
      for (var name in getters) {
        Object.defineProperty(exports, name, { enumerable: true, configurable: true, get: getters[name] });
      }
    },
    star: function (exports, from) {
      Object.keys(from).forEach(function (name) {
        if (name !== "default" && !Object.prototype.hasOwnProperty.call(exports, name)) {
          Object.defineProperty(exports, name, {
            enumerable: true,
            configurable: true,
            get: function () { return from[name]; }
          });
        }
      });
    },
    interop: function (m) {
      return m && m.__esModule ? m["default"] : m;
    },
    dynamic: function (id) {
      return Promise.resolve().then(function () { return load(id); });
    }
  };
  load(entry);
})({
`

// moduleOpen and moduleClose wrap one module in the table.
const (
	moduleOpen  = ": function (module, exports, require, __bundler) {\n"
	moduleClose = "},\n"
)
